package storage

import (
	"sort"
	"strings"
)

// DisableCategory turns off every command in category. Names are stored
// lower-cased.
func (s *Storage) DisableCategory(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.disabled()
	if err != nil {
		return err
	}
	key := strings.ToLower(category)
	for _, c := range list {
		if c == key {
			return nil
		}
	}
	list = append(list, key)
	sort.Strings(list)
	return s.ds.Set(keyDisabled, list)
}

func (s *Storage) EnableCategory(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.disabled()
	if err != nil {
		return err
	}
	key := strings.ToLower(category)
	updated := make([]string, 0, len(list))
	for _, c := range list {
		if c != key {
			updated = append(updated, c)
		}
	}
	return s.ds.Set(keyDisabled, updated)
}

func (s *Storage) IsCategoryDisabled(category string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.disabled()
	if err != nil {
		return false, err
	}
	key := strings.ToLower(category)
	for _, c := range list {
		if c == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) DisabledCategories() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled()
}

func (s *Storage) disabled() ([]string, error) {
	var list []string
	if err := s.load(keyDisabled, &list); err != nil {
		return nil, err
	}
	return list, nil
}
