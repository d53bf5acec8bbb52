package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"facegate.io/entities"
)

type FaceProfileStore struct {
	db *DB
}

func NewFaceProfileStore(db *DB) *FaceProfileStore {
	return &FaceProfileStore{db: db}
}

func (s *FaceProfileStore) Find(ctx context.Context, accountID string) (*entities.FaceProfile, error) {
	var (
		profile               entities.FaceProfile
		embedding             string
		secondary             sql.NullString
		enrolledAt, updatedAt int64
	)
	err := s.db.queryRow(ctx, `SELECT account_id, backend, embedding, secondary, enrolled_at, updated_at
		FROM face_profiles WHERE account_id = ?`, accountID).
		Scan(&profile.ID, &profile.Backend, &embedding, &secondary, &enrolledAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(embedding), &profile.Embedding); err != nil {
		return nil, err
	}
	if secondary.Valid {
		profile.Secondary = &entities.EmbeddingRecord{}
		if err := json.Unmarshal([]byte(secondary.String), profile.Secondary); err != nil {
			return nil, err
		}
	}
	profile.EnrolledAt = fromMicros(enrolledAt)
	profile.UpdatedAt = fromMicros(updatedAt)
	return &profile, nil
}

// Save replaces the account's profile as a whole.
func (s *FaceProfileStore) Save(ctx context.Context, profile *entities.FaceProfile) error {
	embedding, err := json.Marshal(profile.Embedding)
	if err != nil {
		return err
	}
	secondary := sql.NullString{}
	if profile.Secondary != nil {
		raw, err := json.Marshal(profile.Secondary)
		if err != nil {
			return err
		}
		secondary = sql.NullString{String: string(raw), Valid: true}
	}
	_, err = s.db.exec(ctx, `INSERT INTO face_profiles (account_id, backend, embedding, secondary, enrolled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET backend = excluded.backend, embedding = excluded.embedding,
			secondary = excluded.secondary, enrolled_at = excluded.enrolled_at, updated_at = excluded.updated_at`,
		profile.ID, profile.Backend, string(embedding), secondary, micros(profile.EnrolledAt), micros(profile.UpdatedAt))
	return err
}

func (s *FaceProfileStore) Delete(ctx context.Context, accountID string) error {
	_, err := s.db.exec(ctx, `DELETE FROM face_profiles WHERE account_id = ?`, accountID)
	return err
}
