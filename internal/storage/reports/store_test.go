package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradegate/internal/domain"
)

var (
	btc = domain.Pair{From: "BTC", To: "USDT"}
	eth = domain.Pair{From: "ETH", To: "USDT"}
)

func TestMemoryStore_SaveAndReadAfter(t *testing.T) {
	s := NewMemoryStore(10)

	for i := 0; i < 3; i++ {
		idx, err := s.Save(domain.Report{Pair: btc, BarCount: i})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), idx)
	}

	records, err := s.ReportsAfter(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2), records[0].Index)
	assert.Equal(t, 2, records[1].Report.BarCount)

	records, err = s.ReportsAfter(3)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, uint64(3), s.CurrentIndex())
}

func TestMemoryStore_DropsOldest(t *testing.T) {
	s := NewMemoryStore(2)
	for i := 0; i < 5; i++ {
		_, err := s.Save(domain.Report{Pair: btc, BarCount: i})
		require.NoError(t, err)
	}

	records, err := s.ReportsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(4), records[0].Index)
	assert.Equal(t, uint64(5), records[1].Index)
}

func TestMemoryStore_Latest(t *testing.T) {
	s := NewMemoryStore(0)
	_, ok := s.Latest(btc)
	assert.False(t, ok)

	_, err := s.Save(domain.Report{Pair: btc, BarCount: 1})
	require.NoError(t, err)
	_, err = s.Save(domain.Report{Pair: eth, BarCount: 2})
	require.NoError(t, err)
	_, err = s.Save(domain.Report{Pair: btc, BarCount: 3})
	require.NoError(t, err)

	r, ok := s.Latest(btc)
	require.True(t, ok)
	assert.Equal(t, 3, r.BarCount)
}

func TestMemoryStore_RejectsEmptyPair(t *testing.T) {
	_, err := NewMemoryStore(1).Save(domain.Report{})
	assert.Error(t, err)
}
