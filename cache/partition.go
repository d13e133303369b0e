package cache

import (
	"fmt"
	"strings"
	"time"
)

// Partition identifies one of the fixed cache regions.
type Partition uint8

const (
	// Static holds data that almost never changes, such as the category list.
	Static Partition = iota + 1
	// Query holds question-list query results, invalidated on content edits.
	Query
	// User holds user and session derived data that must stay near real time.
	User
)

// Partitions lists every partition a Tiered cache is built with.
var Partitions = []Partition{Static, Query, User}

func (p Partition) String() string {
	switch p {
	case Static:
		return "static"
	case Query:
		return "query"
	case User:
		return "user"
	default:
		return fmt.Sprintf("partition(%d)", uint8(p))
	}
}

// ParsePartition maps a configuration name onto a Partition.
func ParsePartition(name string) (Partition, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "static":
		return Static, nil
	case "query":
		return Query, nil
	case "user":
		return User, nil
	}
	return 0, fmt.Errorf("unknown cache partition %q", name)
}

// PartitionConfig bounds a single partition.
type PartitionConfig struct {
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// DefaultPartitions returns the standard sizing: static 100/24h, query 500/5m, user 1000/1m.
func DefaultPartitions() map[Partition]PartitionConfig {
	return map[Partition]PartitionConfig{
		Static: {MaxEntries: 100, TTL: 24 * time.Hour},
		Query:  {MaxEntries: 500, TTL: 5 * time.Minute},
		User:   {MaxEntries: 1000, TTL: time.Minute},
	}
}
