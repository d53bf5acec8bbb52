package entities

import "time"

// An embedding together with the backend that produced it.
// Vectors from different backends are never compared with each other.
type EmbeddingRecord struct {
	Backend string    `bson:"backend" json:"backend"`
	Vector  []float64 `bson:"vector" json:"-"`
}

// FaceProfile is the enrolled biometric template of an account.
// There is at most one per account and it is always replaced as a whole.
type FaceProfile struct {
	Embedding []float64        `bson:"embedding" json:"-"`
	Backend   string           `bson:"backend" json:"backend"`
	Secondary *EmbeddingRecord `bson:"secondary" json:"-"`

	// ID is the owning account's ID
	ID         string    `bson:"_id" json:"accountID"`
	EnrolledAt time.Time `bson:"enrolledAt" json:"enrolledAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (model FaceProfile) ParseModel() any {
	now := time.Now()
	if model.EnrolledAt.IsZero() {
		model.EnrolledAt = now
	}
	model.UpdatedAt = now
	return &model
}

// EmbeddingFor returns the stored vector produced by the named backend, if any.
func (model *FaceProfile) EmbeddingFor(backend string) ([]float64, bool) {
	if model.Backend == backend && len(model.Embedding) > 0 {
		return model.Embedding, true
	}
	if model.Secondary != nil && model.Secondary.Backend == backend && len(model.Secondary.Vector) > 0 {
		return model.Secondary.Vector, true
	}
	return nil, false
}
