package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"path style", "http://minio:9000/kidsgram/photos/u1/2024-03-01_1.jpg", "photos/u1/2024-03-01_1.jpg"},
		{"escaped path style", "http://minio:9000/kidsgram/audio/u%201/x.m4a", "audio/u 1/x.m4a"},
		{
			"firebase download url",
			"https://firebasestorage.googleapis.com/v0/b/kids.appspot.com/o/photos%2Fu1%2F2024-03-01_1.jpg?alt=media&token=abc",
			"photos/u1/2024-03-01_1.jpg",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pathFromURL(tc.url, "kidsgram")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathFromURL_Unrecognized(t *testing.T) {
	for _, u := range []string{
		"http://minio:9000/other-bucket/photos/a.jpg",
		"http://minio:9000/kidsgram/",
		"https://example.com/",
	} {
		_, err := pathFromURL(u, "kidsgram")
		assert.True(t, errors.Is(err, ErrUnrecognizedURL), "url %s: %v", u, err)
	}

	_, err := pathFromURL("http://[::1", "kidsgram")
	require.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("http://localhost:8080")

	u, err := m.Upload(ctx, "photos/u1/a.jpg", []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/local/photos/u1/a.jpg", u)

	p, err := m.PathFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, "photos/u1/a.jpg", p)

	data, ct, ok := m.Object(p)
	require.True(t, ok)
	assert.Equal(t, []byte("img"), data)
	assert.Equal(t, "image/jpeg", ct)

	signed, err := m.PresignGet(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, u, signed)

	require.NoError(t, m.Delete(ctx, p))
	assert.Zero(t, m.Len())
	require.Error(t, m.Delete(ctx, p))
	_, err = m.PresignGet(ctx, p)
	require.Error(t, err)
}
