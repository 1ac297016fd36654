package storage

import (
	"fmt"
	"slices"

	"radioss/internal/stations"
)

// Favorites returns the ids of favorite stations.
func (s *Store) Favorites() ([]string, error) {
	var ids []string
	if err := s.LoadInto(TypeFavorites, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FavoritedStations returns the full records of favorite stations, so they
// can be listed without querying the directory.
func (s *Store) FavoritedStations() ([]stations.Station, error) {
	var list []stations.Station
	if err := s.LoadInto(TypeFavoritedStations, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ToggleFavorite adds or removes a station from the favorites and reports
// whether it is a favorite afterwards.
func (s *Store) ToggleFavorite(st stations.Station) (bool, error) {
	var nowFavorite bool
	err := update(s, TypeFavorites, func(ids *[]string) {
		if i := slices.Index(*ids, st.ID); i >= 0 {
			*ids = slices.Delete(*ids, i, i+1)
			return
		}
		*ids = append(*ids, st.ID)
		nowFavorite = true
	})
	if err != nil {
		return false, err
	}

	err = update(s, TypeFavoritedStations, func(list *[]stations.Station) {
		*list = slices.DeleteFunc(*list, func(x stations.Station) bool { return x.ID == st.ID })
		if nowFavorite {
			*list = append(*list, st)
		}
	})
	return nowFavorite, err
}

// CustomStations returns the user-defined stations.
func (s *Store) CustomStations() ([]stations.Station, error) {
	var list []stations.Station
	if err := s.LoadInto(TypeCustomStations, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddCustomStation appends a user-defined station.
func (s *Store) AddCustomStation(st stations.Station) error {
	st.IsCustom = true
	return update(s, TypeCustomStations, func(list *[]stations.Station) {
		*list = append(*list, st)
	})
}

// RemoveCustomStation deletes a user-defined station by id.
func (s *Store) RemoveCustomStation(id string) error {
	return update(s, TypeCustomStations, func(list *[]stations.Station) {
		*list = slices.DeleteFunc(*list, func(x stations.Station) bool { return x.ID == id })
	})
}

// Volume returns the saved volume, 0-100.
func (s *Store) Volume() (int, error) {
	var v int
	if err := s.LoadInto(TypeVolume, &v); err != nil {
		return 0, err
	}
	return min(max(v, 0), 100), nil
}

// SetVolume saves the volume, 0-100.
func (s *Store) SetVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("volume %d out of range", v)
	}
	return s.SaveFrom(TypeVolume, v)
}

// PresenceEnabled reports whether Discord presence is switched on.
func (s *Store) PresenceEnabled() (bool, error) {
	var enabled bool
	if err := s.LoadInto(TypeDiscordRPCEnabled, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// SetPresenceEnabled switches Discord presence on or off.
func (s *Store) SetPresenceEnabled(enabled bool) error {
	return s.SaveFrom(TypeDiscordRPCEnabled, enabled)
}

// LastStation returns the id of the station played last, or "".
func (s *Store) LastStation() (string, error) {
	var id *string
	if err := s.LoadInto(TypeLastStation, &id); err != nil {
		return "", err
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

// SetLastStation remembers the station played last.
func (s *Store) SetLastStation(id string) error {
	return s.SaveFrom(TypeLastStation, id)
}
