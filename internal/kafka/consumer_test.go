package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/models"
)

// MockRepository implements the DailyBarWriter interface for testing
type MockRepository struct {
	bars []*models.DailyBar
	err  error
}

func (m *MockRepository) UpsertDailyBar(b *models.DailyBar) error {
	if m.err != nil {
		return m.err
	}
	m.bars = append(m.bars, b)
	return nil
}

func testEvent() models.BarEvent {
	return models.BarEvent{
		EventType: models.EventTypeBarUpsert,
		Source:    "collector",
		Data: models.BarEventData{
			TsCode:    "000001.SZ",
			TradeDate: "20240315",
			Open:      "11.05",
			High:      "11.42",
			Low:       "10.98",
			Close:     "11.20",
			PreClose:  "11.00",
			Change:    "0.20",
			PctChg:    "1.82",
			Vol:       "2500000",
			Amount:    "312000",
		},
		Timestamp: time.Now(),
	}
}

func messageFor(t *testing.T, event models.BarEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.Data.TsCode), Value: value}
}

func TestProcessMessage(t *testing.T) {
	t.Run("saves bar from upsert event", func(t *testing.T) {
		repo := &MockRepository{}
		c := &Consumer{repo: repo, logger: zap.NewNop()}

		err := c.processMessage(messageFor(t, testEvent()))
		require.NoError(t, err)

		require.Len(t, repo.bars, 1)
		bar := repo.bars[0]
		assert.Equal(t, "000001.SZ", bar.TsCode)
		assert.Equal(t, "2024-03-15", bar.TradeDate.Format("2006-01-02"))
		assert.True(t, decimal.NewFromFloat(11.20).Equal(bar.Close))
	})

	t.Run("ignores other event types", func(t *testing.T) {
		repo := &MockRepository{}
		c := &Consumer{repo: repo, logger: zap.NewNop()}

		event := testEvent()
		event.EventType = models.EventTypeSignalCreated

		require.NoError(t, c.processMessage(messageFor(t, event)))
		assert.Empty(t, repo.bars)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		c := &Consumer{repo: &MockRepository{}, logger: zap.NewNop()}

		err := c.processMessage(kafka.Message{Value: []byte("{not json")})
		assert.ErrorContains(t, err, "unmarshal")
	})

	t.Run("surfaces repository errors", func(t *testing.T) {
		c := &Consumer{repo: &MockRepository{err: assert.AnError}, logger: zap.NewNop()}

		err := c.processMessage(messageFor(t, testEvent()))
		assert.ErrorContains(t, err, "failed to save daily bar")
	})
}

func TestConvertEventToBar(t *testing.T) {
	c := &Consumer{logger: zap.NewNop()}

	t.Run("requires ts_code", func(t *testing.T) {
		event := testEvent()
		event.Data.TsCode = ""

		_, err := c.convertEventToBar(event)
		assert.ErrorContains(t, err, "missing ts_code")
	})

	t.Run("rejects bad trade_date", func(t *testing.T) {
		event := testEvent()
		event.Data.TradeDate = "2024-03-15"

		_, err := c.convertEventToBar(event)
		assert.ErrorContains(t, err, "invalid trade_date")
	})

	t.Run("rejects bad required price", func(t *testing.T) {
		event := testEvent()
		event.Data.Close = "n/a"

		_, err := c.convertEventToBar(event)
		assert.ErrorContains(t, err, "invalid close")
	})

	t.Run("optional fields default to zero", func(t *testing.T) {
		event := testEvent()
		event.Data.PreClose = ""
		event.Data.Vol = "garbage"

		bar, err := c.convertEventToBar(event)
		require.NoError(t, err)
		assert.True(t, bar.PreClose.IsZero())
		assert.True(t, bar.Vol.IsZero())
	})
}

func TestOptionalDecimal(t *testing.T) {
	assert.True(t, optionalDecimal("").IsZero())
	assert.True(t, optionalDecimal("NaN").IsZero())
	assert.True(t, decimal.NewFromFloat(1.5).Equal(optionalDecimal("1.5")))
}
