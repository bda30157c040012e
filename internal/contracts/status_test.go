package contracts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

func TestDeriveContractStatusBoundaries(t *testing.T) {
	today := calendar.NewDate(15, 6, 2024)
	clock := calendar.FixedClock(today)
	c := baseContract()

	cases := []struct {
		offset int
		want   Status
	}{
		{31, StatusActive},
		{30, StatusWarning},
		{0, StatusWarning},
		{-1, StatusExpired},
		{400, StatusActive},
	}
	for _, tc := range cases {
		end := calendar.AddDuration(today, tc.offset, calendar.UnitDay)
		got := DeriveContractStatus(c, end, clock)
		require.Equal(t, tc.offset, got.DaysRemaining)
		require.Equal(t, tc.want, got.Status, "offset %d", tc.offset)
	}
}

func TestDeriveContractStatusManualOverride(t *testing.T) {
	today := calendar.NewDate(15, 6, 2024)
	clock := calendar.FixedClock(today)
	long := calendar.AddDuration(today, -500, calendar.UnitDay)

	c := baseContract()
	c.ManualStatus = ManualExecuted
	require.Equal(t, StatusExecuted, DeriveContractStatus(c, long, clock).Status)

	c.ManualStatus = ManualRescinded
	got := DeriveContractStatus(c, calendar.Date{}, clock)
	require.Equal(t, Derived{Status: StatusRescinded}, got)
}

func TestDeriveWith(t *testing.T) {
	clock := calendar.FixedClock(calendar.NewDate(1, 1, 2024))
	c := baseContract()

	got, err := DeriveWith(calendar.PolicyLenient, 60, c, calendar.NewDate(1, 3, 2024), clock)
	require.NoError(t, err)
	require.Equal(t, Derived{DaysRemaining: 60, Status: StatusWarning}, got)

	got, err = DeriveWith(calendar.PolicyLenient, 30, c, calendar.Date{Day: 31, Month: 2, Year: 2024}, clock)
	require.NoError(t, err)
	require.Equal(t, Derived{DaysRemaining: 0, Status: StatusWarning}, got)

	_, err = DeriveWith(calendar.PolicyStrict, 30, c, calendar.Date{Day: 31, Month: 2, Year: 2024}, clock)
	require.ErrorIs(t, err, calendar.ErrMalformedDate)
}

func TestManualStatus(t *testing.T) {
	require.True(t, ManualNone.Valid())
	require.False(t, ManualNone.Set())
	require.True(t, ManualExecuted.Set())
	require.False(t, ManualStatus("suspended").Valid())
}
