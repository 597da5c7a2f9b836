// Package frecency ranks recently assumed roles so the picker can surface
// them first. The ordering blends how often and how recently each role was
// used.
package frecency

import (
	"encoding/json"
	"math"
	"os"
	"path"
	"sort"
	"time"

	"github.com/common-fate/clio"
	"github.com/common-fate/roletest/pkg/config"
	"github.com/pkg/errors"
)

// change these to play with the weights
// values between 0 and 1
// 0 will exclude the metric all together from the ordering
var FrequencyWeight float64 = 1
var DateWeight float64 = 1

const roleStoreKey = "role_frecency"

type Store struct {
	MaxFrequency int
	OldestDate   time.Time
	Entries      []*Entry
	path         string
}

type Entry struct {
	Role                 string
	Frequency            int
	LastUsed             time.Time
	FrequencyScore       float64
	LastUsedScore        float64
	FrecencySortingScore float64
}

// Load reads the store file from the roletest config folder, starting fresh
// when the file is missing or unreadable.
func Load(storeKey string) (*Store, error) {
	s := Store{MaxFrequency: 1, OldestDate: time.Now()}
	configFolder, err := config.RoletestConfigFolder()
	if err != nil {
		return nil, err
	}
	s.path = path.Join(configFolder, storeKey)

	if _, err = os.Stat(s.path); os.IsNotExist(err) {
		return &s, nil
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(&s)
	if err != nil {
		// if there is an error just reset the file
		return &Store{MaxFrequency: 1, OldestDate: time.Now(), path: s.path}, nil
	}
	return &s, nil
}

// Roles returns the stored role names in descending frecency order.
func (s *Store) Roles() []string {
	roles := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		roles = append(roles, e.Role)
	}
	return roles
}

// Delete removes a single role from the store.
func (s *Store) Delete(role string) error {
	for i, e := range s.Entries {
		if e.Role == role {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			break
		}
	}
	return s.save()
}

// Upsert records a use of role. Existing entries get their frequency bumped
// and their last-used date refreshed; scores are reevaluated on save so the
// entry sorts into place.
func (s *Store) Upsert(role string) error {
	entry := Entry{Role: role, Frequency: 1, LastUsed: time.Now()}
	s.OldestDate = entry.LastUsed
	updated := false

	for _, e := range s.Entries {
		if e.Role == role {
			e.LastUsed = entry.LastUsed
			e.Frequency++
			if e.Frequency > s.MaxFrequency {
				s.MaxFrequency = e.Frequency
			}
			updated = true
		}
		if e.LastUsed.Before(s.OldestDate) {
			s.OldestDate = e.LastUsed
		}
	}
	if !updated {
		s.Entries = append(s.Entries, &entry)
	}
	return s.save()
}

// save reevaluates the frecency scores, sorts the entries and writes the
// store file.
func (s *Store) save() error {
	for _, e := range s.Entries {
		// log10 gives a decay effect: entries with a frequency much lower
		// than the max score very low, while entries at 50% of the max and
		// above score relatively close to each other. The same holds for
		// the last-used date.
		e.FrequencyScore = math.Log10(float64(e.Frequency) / float64(s.MaxFrequency) * 10)
		// when every entry was used at the same moment, the diff and the
		// time.Since denominator are both near zero, so the log would be
		// -Inf or NaN. Those entries score maximally recent instead.
		lastUsedDiff := float64(e.LastUsed.Sub(s.OldestDate))
		if lastUsedDiff > 0 {
			e.LastUsedScore = math.Log10(lastUsedDiff / float64(time.Since(s.OldestDate)) * 10)
		} else {
			e.LastUsedScore = 1
		}
		e.FrecencySortingScore = e.FrequencyScore*FrequencyWeight + e.LastUsedScore*DateWeight
	}

	sort.SliceStable(s.Entries, func(i, j int) bool {
		return s.Entries[i].FrecencySortingScore > s.Entries[j].FrecencySortingScore
	})

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(s)
}

// FrecentRoles is the handle returned by ForRoles. Call Update after the
// user picks a role to record the use and drop stale entries.
type FrecentRoles struct {
	store    *Store
	toRemove []string
}

// should be called after selecting a role to update the frecency cache
// wrap this method in a go routine to avoid blocking the user
func (f *FrecentRoles) Update(selectedRole string) {
	if f.store == nil {
		return
	}
	for _, r := range f.toRemove {
		if err := f.store.Delete(r); err != nil {
			clio.Debug(errors.Wrap(err, "removing entry from frecency").Error())
		}
	}
	if err := f.store.Upsert(selectedRole); err != nil {
		clio.Debug(errors.Wrap(err, "upserting entry to frecency").Error())
	}
}

// UpdateRoleFrecency records a use of a role supplied on the command line,
// outside the picker flow.
func UpdateRoleFrecency(role string) {
	store, err := Load(roleStoreKey)
	if err != nil {
		clio.Debug(errors.Wrap(err, "loading role frecency store").Error())
		return
	}
	if err := store.Upsert(role); err != nil {
		clio.Debug(errors.Wrap(err, "upserting entry to frecency").Error())
	}
}

// ForRoles loads the role frecency store and orders names with frecently
// used roles first, followed by the remaining names in their given order.
// Stored roles which no longer appear in names are removed from the cache
// on the next Update.
func ForRoles(names []string) (*FrecentRoles, []string) {
	store, err := Load(roleStoreKey)
	if err != nil {
		clio.Debug(errors.Wrap(err, "loading role frecency store").Error())
		return &FrecentRoles{}, names
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	ordered := make([]string, 0, len(names))
	seen := make(map[string]bool)
	var toRemove []string
	for _, e := range store.Entries {
		if present[e.Role] {
			ordered = append(ordered, e.Role)
			seen[e.Role] = true
		} else {
			toRemove = append(toRemove, e.Role)
		}
	}
	for _, n := range names {
		if !seen[n] {
			ordered = append(ordered, n)
		}
	}
	return &FrecentRoles{store: store, toRemove: toRemove}, ordered
}
