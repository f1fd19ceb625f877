package state

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
)

// CreateFavorite persists a favorite created from a token result. The
// raw access token is cleared before writing so it never reaches disk;
// only display metadata (type, expiry, auth path) is kept.
func (s *State) CreateFavorite(fav models.FavoriteItem) (*models.FavoriteItem, error) {
	fav.ID = uuid.NewString()
	fav.CreatedAt = time.Now().UTC()
	fav.IsPinned = false
	fav.PinnedAt = nil

	if fav.TokenData != nil {
		scrubbed := *fav.TokenData
		scrubbed.AccessToken = ""
		fav.TokenData = &scrubbed
	}

	if err := s.putFavorite(fav); err != nil {
		return nil, err
	}

	return &fav, nil
}

// UpdateFavorite replaces the editable fields (tags, color, target) of
// a stored favorite. Pin state and counters are preserved.
func (s *State) UpdateFavorite(fav models.FavoriteItem) error {
	existing, err := s.GetFavorite(fav.ID)
	if err != nil {
		return err
	}

	fav.CreatedAt = existing.CreatedAt
	fav.IsPinned = existing.IsPinned
	fav.PinnedAt = existing.PinnedAt
	fav.UseCount = existing.UseCount

	if fav.TokenData != nil {
		scrubbed := *fav.TokenData
		scrubbed.AccessToken = ""
		fav.TokenData = &scrubbed
	}

	return s.putFavorite(fav)
}

func (s *State) putFavorite(fav models.FavoriteItem) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(fav)
		if err != nil {
			return err
		}

		return tx.Bucket(favoritesBucket).Put([]byte(fav.ID), data)
	})
}

// GetFavorite returns a favorite by ID.
func (s *State) GetFavorite(id string) (*models.FavoriteItem, error) {
	var fav *models.FavoriteItem

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(favoritesBucket).Get([]byte(id))
		if v == nil {
			return nil
		}

		fav = &models.FavoriteItem{}

		return json.Unmarshal(v, fav)
	})
	if err != nil {
		return nil, err
	}

	if fav == nil {
		return nil, apperrors.ErrFavoriteNotFound
	}

	return fav, nil
}

// DeleteFavorite removes a favorite by ID.
func (s *State) DeleteFavorite(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(favoritesBucket).Delete([]byte(id))
	})
}

// AllFavorites returns all favorites, pinned first (by pin time), then
// by descending use count.
func (s *State) AllFavorites() ([]models.FavoriteItem, error) {
	var favs []models.FavoriteItem

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(favoritesBucket).ForEach(func(k, v []byte) error {
			var fav models.FavoriteItem
			if err := json.Unmarshal(v, &fav); err != nil {
				return err
			}

			favs = append(favs, fav)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(favs, func(i, j int) bool {
		a, b := favs[i], favs[j]

		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}

		if a.IsPinned && a.PinnedAt != nil && b.PinnedAt != nil && !a.PinnedAt.Equal(*b.PinnedAt) {
			return a.PinnedAt.Before(*b.PinnedAt)
		}

		if a.UseCount != b.UseCount {
			return a.UseCount > b.UseCount
		}

		return a.CreatedAt.After(b.CreatedAt)
	})

	return favs, nil
}

// Pinned returns the token dock: pinned favorites in pin order.
func (s *State) Pinned() ([]models.FavoriteItem, error) {
	favs, err := s.AllFavorites()
	if err != nil {
		return nil, err
	}

	var pinned []models.FavoriteItem

	for _, fav := range favs {
		if fav.IsPinned {
			pinned = append(pinned, fav)
		}
	}

	return pinned, nil
}

// Pin adds a favorite to the token dock. At most MaxPinned favorites
// may be pinned; pinning an already pinned favorite is a no-op.
func (s *State) Pin(id string, at time.Time) error {
	fav, err := s.GetFavorite(id)
	if err != nil {
		return err
	}

	if fav.IsPinned {
		return nil
	}

	pinned, err := s.Pinned()
	if err != nil {
		return err
	}

	if len(pinned) >= MaxPinned {
		return apperrors.ErrPinLimit
	}

	at = at.UTC()
	fav.IsPinned = true
	fav.PinnedAt = &at

	return s.putFavorite(*fav)
}

// Unpin removes a favorite from the token dock.
func (s *State) Unpin(id string) error {
	fav, err := s.GetFavorite(id)
	if err != nil {
		return err
	}

	fav.IsPinned = false
	fav.PinnedAt = nil

	return s.putFavorite(*fav)
}

// RecordFavoriteUse bumps the use counter of a favorite.
func (s *State) RecordFavoriteUse(id string) error {
	fav, err := s.GetFavorite(id)
	if err != nil {
		return err
	}

	fav.UseCount++

	return s.putFavorite(*fav)
}
