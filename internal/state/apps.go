package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	apperrors "github.com/entrastudio/token-studio/internal/errors"
	"github.com/entrastudio/token-studio/internal/models"
)

// CreateApp validates and persists a new app registration, assigning
// its ID and creation time.
func (s *State) CreateApp(app models.AppConfig) (*models.AppConfig, error) {
	if err := validateApp(app); err != nil {
		return nil, err
	}

	app.ID = uuid.NewString()
	app.CreatedAt = time.Now().UTC()

	if err := s.putApp(app); err != nil {
		return nil, err
	}

	return &app, nil
}

// UpdateApp replaces an existing app registration. The ID and
// CreatedAt of the stored record are preserved.
func (s *State) UpdateApp(app models.AppConfig) error {
	if err := validateApp(app); err != nil {
		return err
	}

	existing, err := s.GetApp(app.ID)
	if err != nil {
		return err
	}

	app.CreatedAt = existing.CreatedAt
	app.LastUsedAt = existing.LastUsedAt

	return s.putApp(app)
}

// validateApp enforces the KeyVaultConfig invariant: exactly one of
// SecretName/CertName set, matching CredentialType.
func validateApp(app models.AppConfig) error {
	if app.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if app.ClientID == "" || app.TenantID == "" {
		return fmt.Errorf("clientId and tenantId are required")
	}

	kv := app.KeyVault

	switch kv.CredentialType {
	case models.MethodSecret:
		if kv.SecretName == "" || kv.CertName != "" {
			return fmt.Errorf("credentialType %q requires secretName and no certName", kv.CredentialType)
		}
	case models.MethodCertificate:
		if kv.CertName == "" || kv.SecretName != "" {
			return fmt.Errorf("credentialType %q requires certName and no secretName", kv.CredentialType)
		}
	default:
		return fmt.Errorf("unknown credentialType %q", kv.CredentialType)
	}

	return nil
}

func (s *State) putApp(app models.AppConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(app)
		if err != nil {
			return err
		}

		return tx.Bucket(appsBucket).Put([]byte(app.ID), data)
	})
}

// GetApp returns an app registration by ID.
func (s *State) GetApp(id string) (*models.AppConfig, error) {
	var app *models.AppConfig

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appsBucket).Get([]byte(id))
		if v == nil {
			return nil
		}

		app = &models.AppConfig{}

		return json.Unmarshal(v, app)
	})
	if err != nil {
		return nil, err
	}

	if app == nil {
		return nil, apperrors.ErrAppNotFound
	}

	return app, nil
}

// DeleteApp removes an app registration by ID.
func (s *State) DeleteApp(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appsBucket).Delete([]byte(id))
	})
}

// AllApps returns all registered apps, sorted by name.
func (s *State) AllApps() ([]models.AppConfig, error) {
	var apps []models.AppConfig

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(appsBucket).ForEach(func(k, v []byte) error {
			var app models.AppConfig
			if err := json.Unmarshal(v, &app); err != nil {
				return err
			}

			apps = append(apps, app)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })

	return apps, nil
}

// TouchApp records a use of the app at the given time.
func (s *State) TouchApp(id string, at time.Time) error {
	app, err := s.GetApp(id)
	if err != nil {
		return err
	}

	at = at.UTC()
	app.LastUsedAt = &at

	return s.putApp(*app)
}
