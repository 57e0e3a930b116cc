package biometric_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdaan/vicore/internal/biometric"
	"github.com/matdaan/vicore/internal/testutil"
)

func TestDecodeFrame(t *testing.T) {
	img, err := biometric.DecodeFrame(testutil.Portrait{Seed: 1, EyesOpen: true}.PNG(t))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = biometric.DecodeFrame([]byte("not an image"))
	require.ErrorIs(t, err, biometric.ErrImageDecode)
}

func TestDecodeBase64Frame(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testutil.NoFacePNG(t))

	img, err := biometric.DecodeBase64Frame(encoded)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	// Browsers submit frames with a data-URL prefix.
	img, err = biometric.DecodeBase64Frame("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dy())

	_, err = biometric.DecodeBase64Frame("%%%not base64%%%")
	require.ErrorIs(t, err, biometric.ErrImageDecode)
}
