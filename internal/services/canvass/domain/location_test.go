package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocationValidate(t *testing.T) {
	require.NoError(t, sanFrancisco.Validate())
	require.Error(t, Location{}.Validate())
	require.Error(t, Location{Latitude: 91, Longitude: 1}.Validate())
	require.Error(t, Location{Latitude: 1, Longitude: -181}.Validate())
	require.Error(t, Location{Latitude: math.NaN(), Longitude: 1}.Validate())
}

func TestPreferredLocation(t *testing.T) {
	require.Equal(t, london, PreferredLocation(sanFrancisco, london))
	require.Equal(t, sanFrancisco, PreferredLocation(sanFrancisco, Location{}))
}

func TestProgressStateFraction(t *testing.T) {
	require.Equal(t, 0.25, ProgressState{Tick: 25, MaxTicks: 100}.Fraction())
	require.Equal(t, 1.0, ProgressState{Tick: 100, MaxTicks: 100}.Fraction())
	require.True(t, ProgressState{Tick: 100, MaxTicks: 100}.Saturated())
	require.False(t, ProgressState{Tick: 99, MaxTicks: 100}.Saturated())
	require.Equal(t, 0.0, ProgressState{}.Fraction())
}
