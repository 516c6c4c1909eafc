// Package verification records proof-of-delivery checks: a GPS fix and an
// optional photo per delivered order.
package verification

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/shiptrack/internal/artifact"
)

// Prefix is the artifact prefix delivery photos are stored under.
const Prefix = "verifications"

// ValidationError lists the problems with a verification submission.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid verification: " + strings.Join(e.Problems, "; ")
}

// Record is one append-only verification entry.
type Record struct {
	OrderID   string    `json:"orderId"`
	GPSLat    float64   `json:"gpsLat"`
	GPSLong   float64   `json:"gpsLong"`
	PhotoRef  string    `json:"photoRef,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Photo is an uploaded delivery photo.
type Photo struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Submission is the input to Verify.
type Submission struct {
	OrderID string
	GPSLat  float64
	GPSLong float64
	Photo   *Photo
}

// Repository appends and lists records.
type Repository interface {
	Append(ctx context.Context, r Record) error
	List(ctx context.Context) ([]Record, error)
}

// Service stores verification records and their photos.
type Service struct {
	records   Repository
	artifacts artifact.Store
	now       func() time.Time
}

// NewService creates a verification Service.
func NewService(records Repository, artifacts artifact.Store) *Service {
	return &Service{
		records:   records,
		artifacts: artifacts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Verify validates the submission, stores the photo if present and appends
// the record.
func (s *Service) Verify(ctx context.Context, sub Submission) (*Record, error) {
	var problems []string
	if strings.TrimSpace(sub.OrderID) == "" {
		problems = append(problems, "orderId is required")
	}
	// Negated range checks also reject NaN and infinities.
	if !(sub.GPSLat >= -90 && sub.GPSLat <= 90) {
		problems = append(problems, "gpsLat must be between -90 and 90")
	}
	if !(sub.GPSLong >= -180 && sub.GPSLong <= 180) {
		problems = append(problems, "gpsLong must be between -180 and 180")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	rec := Record{
		OrderID:   sub.OrderID,
		GPSLat:    sub.GPSLat,
		GPSLong:   sub.GPSLong,
		Timestamp: s.now(),
	}

	if sub.Photo != nil && len(sub.Photo.Data) > 0 {
		url, err := s.artifacts.Put(ctx, artifact.Object{
			Prefix:      Prefix,
			Name:        photoName(sub.OrderID, sub.Photo.FileName),
			ContentType: sub.Photo.ContentType,
			Data:        sub.Photo.Data,
		})
		if err != nil {
			return nil, errors.Wrap(err, "store photo")
		}
		rec.PhotoRef = url
	}

	if err := s.records.Append(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "append verification")
	}
	return &rec, nil
}

// List returns every record in submission order.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list verifications")
	}
	return records, nil
}

func photoName(orderID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s-%s%s", artifact.SafeName(orderID), uuid.NewString()[:8], ext)
}
