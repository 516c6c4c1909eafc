package verification_test

import (
	"context"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shiptrack/internal/artifact"
	"github.com/xenking/shiptrack/internal/domain/verification"
	"github.com/xenking/shiptrack/internal/storage/memory"
)

func newService(t *testing.T) (*verification.Service, *artifact.DiskStore) {
	t.Helper()
	files, err := artifact.NewDiskStore(t.TempDir(), "http://verify.test")
	require.NoError(t, err)
	return verification.NewService(memory.NewVerificationRepository(), files), files
}

func TestService_Verify_Validation(t *testing.T) {
	for _, tt := range []struct {
		name     string
		sub      verification.Submission
		problems []string
	}{
		{
			name:     "MissingOrderID",
			sub:      verification.Submission{GPSLat: 1, GPSLong: 1},
			problems: []string{"orderId is required"},
		},
		{
			name:     "LatitudeOutOfRange",
			sub:      verification.Submission{OrderID: "o", GPSLat: 90.5},
			problems: []string{"gpsLat must be between -90 and 90"},
		},
		{
			name:     "LongitudeOutOfRange",
			sub:      verification.Submission{OrderID: "o", GPSLong: -181},
			problems: []string{"gpsLong must be between -180 and 180"},
		},
		{
			name:     "LatitudeNaN",
			sub:      verification.Submission{OrderID: "o", GPSLat: math.NaN()},
			problems: []string{"gpsLat must be between -90 and 90"},
		},
		{
			name:     "LongitudeInfinite",
			sub:      verification.Submission{OrderID: "o", GPSLong: math.Inf(-1)},
			problems: []string{"gpsLong must be between -180 and 180"},
		},
		{
			name: "Everything",
			sub:  verification.Submission{GPSLat: -91, GPSLong: 181},
			problems: []string{
				"orderId is required",
				"gpsLat must be between -90 and 90",
				"gpsLong must be between -180 and 180",
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			_, err := svc.Verify(context.Background(), tt.sub)

			var verr *verification.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.problems, verr.Problems)

			records, err := svc.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestService_Verify_Bounds(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, sub := range []verification.Submission{
		{OrderID: "a", GPSLat: 90, GPSLong: 180},
		{OrderID: "b", GPSLat: -90, GPSLong: -180},
		{OrderID: "c"},
	} {
		rec, err := svc.Verify(ctx, sub)
		require.NoError(t, err)
		assert.Empty(t, rec.PhotoRef)
		assert.False(t, rec.Timestamp.IsZero())
	}
}

func TestService_Verify_StoresPhoto(t *testing.T) {
	svc, files := newService(t)
	ctx := context.Background()

	rec, err := svc.Verify(ctx, verification.Submission{
		OrderID: "ORD/1",
		GPSLat:  51.5,
		GPSLong: -0.12,
		Photo: &verification.Photo{
			FileName:    "Porch.PNG",
			ContentType: "image/png",
			Data:        []byte("\x89PNG fake"),
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^http://verify\.test/files/verifications/ORD_1-[0-9a-f]{8}\.png$`), rec.PhotoRef)

	obj, err := files.Get(ctx, strings.TrimPrefix(rec.PhotoRef, "http://verify.test/files/"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG fake"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestService_Verify_EmptyPhotoIgnored(t *testing.T) {
	svc, _ := newService(t)

	rec, err := svc.Verify(context.Background(), verification.Submission{
		OrderID: "o",
		Photo:   &verification.Photo{FileName: "empty.jpg"},
	})
	require.NoError(t, err)
	assert.Empty(t, rec.PhotoRef)
}

func TestService_List(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		_, err := svc.Verify(ctx, verification.Submission{OrderID: id, GPSLat: 1, GPSLong: 2})
		require.NoError(t, err)
	}

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, id := range []string{"first", "second", "third"} {
		assert.Equal(t, id, records[i].OrderID)
	}
}
