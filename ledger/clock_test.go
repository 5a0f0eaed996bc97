package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tribe/loyalty-engine/ledger"
)

func TestSameMonthDay(t *testing.T) {
	birth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, ledger.SameMonthDay(birth, time.Date(2026, time.June, 15, 23, 59, 0, 0, time.UTC)))
	assert.False(t, ledger.SameMonthDay(birth, time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC)))
	assert.False(t, ledger.SameMonthDay(birth, time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)))
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2026, time.March, 2, 17, 45, 12, 999, time.UTC)

	got := ledger.StartOfDay(at)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestKindValid(t *testing.T) {
	assert.True(t, ledger.KindEnrollment.Valid())
	assert.True(t, ledger.KindGiftReceived.Valid())
	assert.False(t, ledger.Kind("refund").Valid())
}

func TestEntryDirection(t *testing.T) {
	assert.True(t, ledger.Entry{Amount: 10}.IsCredit())
	assert.True(t, ledger.Entry{Amount: -10}.IsDebit())
	assert.False(t, ledger.Entry{Amount: -10}.IsCredit())
}
