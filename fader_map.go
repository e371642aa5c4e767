package paramdeck

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/thoas/go-funk"
)

// faderMap maps fader indices on the controller to the engine parameters they drive
type faderMap struct {
	m    map[int][]string
	lock sync.Locker
}

func newFaderMap() *faderMap {
	return &faderMap{
		m:    make(map[int][]string),
		lock: &sync.Mutex{},
	}
}

func faderMapFromConfigs(userMapping map[string][]string, internalMapping map[string][]string) *faderMap {
	resultMap := newFaderMap()

	// copy targets from user config, ignoring empty values
	for faderIdxString, targets := range userMapping {
		faderIdx, _ := strconv.Atoi(faderIdxString)

		resultMap.set(faderIdx, funk.FilterString(targets, func(s string) bool {
			return s != ""
		}))
	}

	// add targets from internal configs, ignoring duplicate or empty values
	for faderIdxString, targets := range internalMapping {
		faderIdx, _ := strconv.Atoi(faderIdxString)

		existingTargets, ok := resultMap.get(faderIdx)
		if !ok {
			existingTargets = []string{}
		}

		filteredTargets := funk.FilterString(targets, func(s string) bool {
			return (!funk.ContainsString(existingTargets, s)) && s != ""
		})

		existingTargets = append(existingTargets, filteredTargets...)
		resultMap.set(faderIdx, existingTargets)
	}

	return resultMap
}

func (m *faderMap) iterate(f func(int, []string)) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for key, value := range m.m {
		f(key, value)
	}
}

func (m *faderMap) get(key int) ([]string, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	value, ok := m.m[key]
	return value, ok
}

func (m *faderMap) set(key int, value []string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.m[key] = value
}

func (m *faderMap) String() string {
	m.lock.Lock()
	defer m.lock.Unlock()

	faderCount := 0
	targetCount := 0

	for _, value := range m.m {
		faderCount++
		targetCount += len(value)
	}

	return fmt.Sprintf("<%d faders mapped to %d parameters>", faderCount, targetCount)
}
