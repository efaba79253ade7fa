package tracefile

import (
	"sync"

	"evtrace/internal/loc"
)

// Context implements loc.Context over a location directory, lazily loading
// and caching each reference kind's mapping table and the clock chain on
// first use.
type Context struct {
	dir string

	mu           sync.Mutex
	mappings     [loc.RefInterruptGenerator + 1]*loc.IdMap
	loaded       [loc.RefInterruptGenerator + 1]bool
	clocks       *loc.ClockInterval
	clocksLoaded bool
}

// NewContext returns a Context reading companion mapping and clock files
// from dir (a single location's directory within the archive).
func NewContext(dir string) *Context {
	return &Context{dir: dir}
}

// MappingTable implements loc.Context.
func (c *Context) MappingTable(kind loc.RefKind) *loc.IdMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded[kind] {
		m, err := LoadMapping(c.dir, kind)
		if err != nil {
			m = loc.NewIdMap(nil)
		}
		c.mappings[kind] = m
		c.loaded[kind] = true
	}
	return c.mappings[kind]
}

// ClockIntervals implements loc.Context.
func (c *Context) ClockIntervals() *loc.ClockInterval {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.clocksLoaded {
		chain, err := LoadClockChain(c.dir)
		if err != nil {
			chain = nil
		}
		c.clocks = chain
		c.clocksLoaded = true
	}
	return c.clocks
}
