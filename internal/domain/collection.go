package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GroupCollection is one group's contribution inside a collection entry.
type GroupCollection struct {
	GroupName     string `json:"groupName"`
	SandwichCount int    `json:"sandwichCount"`
}

// SandwichCollection is one logged collection: individual sandwiches plus
// any group contributions for a host on a date.
type SandwichCollection struct {
	ID               int64
	CollectionDate   time.Time
	HostName         string
	IndividualCount  int
	GroupCollections []GroupCollection
	SubmittedBy      string
	SubmittedAt      time.Time
}

// GroupTotal sums the group contributions.
func (c SandwichCollection) GroupTotal() int {
	total := 0
	for _, g := range c.GroupCollections {
		total += g.SandwichCount
	}
	return total
}

// Total is the complete sandwich count for the entry.
func (c SandwichCollection) Total() int {
	return c.IndividualCount + c.GroupTotal()
}

// ParseGroupCollections normalizes the historical group-collections field.
// Backups stored it as a bare number, a JSON array of
// {groupName, sandwichCount} (sometimes {name, count}), or an empty string.
func ParseGroupCollections(raw string) ([]GroupCollection, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "[]" || trimmed == "null" {
		return nil, nil
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n <= 0 {
			return nil, nil
		}
		return []GroupCollection{{GroupName: "Unnamed Groups", SandwichCount: n}}, nil
	}
	var entries []struct {
		GroupName     string `json:"groupName"`
		SandwichCount int    `json:"sandwichCount"`
		Name          string `json:"name"`
		Count         int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, fmt.Errorf("parse group collections: %w", err)
	}
	groups := make([]GroupCollection, 0, len(entries))
	for _, e := range entries {
		g := GroupCollection{GroupName: e.GroupName, SandwichCount: e.SandwichCount}
		if g.GroupName == "" {
			g.GroupName = e.Name
		}
		if g.SandwichCount == 0 {
			g.SandwichCount = e.Count
		}
		if g.GroupName == "" && g.SandwichCount == 0 {
			continue
		}
		if g.GroupName == "" {
			g.GroupName = "Unnamed Groups"
		}
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return groups, nil
}

// CollectionTotals aggregates logged collections.
type CollectionTotals struct {
	Entries         int64
	IndividualTotal int64
	GroupTotal      int64
	CompleteTotal   int64
}

// HostTotal aggregates collections for one host.
type HostTotal struct {
	HostName      string
	Entries       int64
	CompleteTotal int64
}

// WeeklyTotal buckets complete counts by week start date.
type WeeklyTotal struct {
	WeekStart     time.Time
	Entries       int64
	CompleteTotal int64
}
