package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woox/commerce-relay-go/internal/llm"
	"github.com/woox/commerce-relay-go/internal/model"
)

// newestFirst mirrors the repository ordering: index 0 is the latest message.
func newestFirst(chronological ...model.Message) []model.Message {
	out := make([]model.Message, 0, len(chronological))
	for i := len(chronological) - 1; i >= 0; i-- {
		out = append(out, chronological[i])
	}
	return out
}

func customerMsg(content string) model.Message {
	return model.Message{SenderType: model.SenderCustomer, Content: content}
}

func aiMsg(content string) model.Message {
	return model.Message{SenderType: model.SenderAI, Content: content}
}

func TestHistoryTurns(t *testing.T) {
	t.Run("merges consecutive same-role messages", func(t *testing.T) {
		history := newestFirst(
			customerMsg("hola"),
			aiMsg("¡Buenas! ¿Qué deseas?"),
			customerMsg("quiero una pizza"),
			customerMsg("y un refresco"),
		)

		turns := HistoryTurns(history)
		require.Len(t, turns, 3)
		assert.Equal(t, llm.Turn{Role: llm.RoleUser, Text: "hola"}, turns[0])
		assert.Equal(t, llm.Turn{Role: llm.RoleModel, Text: "¡Buenas! ¿Qué deseas?"}, turns[1])
		assert.Equal(t, llm.Turn{Role: llm.RoleUser, Text: "quiero una pizza\ny un refresco"}, turns[2])
	})

	t.Run("drops leading model turn", func(t *testing.T) {
		history := newestFirst(
			aiMsg("¡Bienvenido!"),
			customerMsg("hola"),
		)

		turns := HistoryTurns(history)
		require.Len(t, turns, 1)
		assert.Equal(t, llm.RoleUser, turns[0].Role)
	})

	t.Run("human agent messages count as model turns", func(t *testing.T) {
		history := newestFirst(
			customerMsg("hola"),
			model.Message{SenderType: model.SenderHumanAgent, Content: "Te atiende Carlos"},
			customerMsg("gracias"),
		)

		turns := HistoryTurns(history)
		require.Len(t, turns, 3)
		assert.Equal(t, llm.RoleModel, turns[1].Role)
	})

	t.Run("empty history", func(t *testing.T) {
		assert.Empty(t, HistoryTurns(nil))
	})
}

func TestCatalogBlock(t *testing.T) {
	bebidas := "Bebidas"
	pizzas := "Pizzas"

	t.Run("groups by category in first-seen order", func(t *testing.T) {
		block := CatalogBlock([]model.Product{
			{Name: "Pizza Margarita", Price: 10.50, CategoryName: &pizzas},
			{Name: "Coca-Cola", Price: 2, CategoryName: &bebidas},
			{Name: "Pizza Pepperoni", Price: 12, CategoryName: &pizzas},
		})

		assert.Equal(t, "*Pizzas*\n• Pizza Margarita $10.5\n• Pizza Pepperoni $12\n\n*Bebidas*\n• Coca-Cola $2", block)
	})

	t.Run("uncategorized products fall into Otros", func(t *testing.T) {
		block := CatalogBlock([]model.Product{
			{Name: "Empanada", Price: 1.25},
		})
		assert.Equal(t, "*Otros*\n• Empanada $1.25", block)
	})

	t.Run("empty catalog", func(t *testing.T) {
		assert.Equal(t, "", CatalogBlock(nil))
	})
}

func TestWithinSchedule(t *testing.T) {
	tz := "UTC"
	at := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 1, hour, minute, 0, 0, time.UTC)
	}

	merchant := func(start, end string) *model.Merchant {
		return &model.Merchant{
			AIScheduleEnabled: true,
			AIScheduleStart:   start,
			AIScheduleEnd:     end,
			Timezone:          &tz,
		}
	}

	tests := []struct {
		name string
		m    *model.Merchant
		now  time.Time
		want bool
	}{
		{"inside window", merchant("09:00", "18:00"), at(12, 0), true},
		{"before opening", merchant("09:00", "18:00"), at(8, 59), false},
		{"at closing is outside", merchant("09:00", "18:00"), at(18, 0), false},
		{"wraps midnight, late night inside", merchant("20:00", "02:00"), at(23, 30), true},
		{"wraps midnight, early morning inside", merchant("20:00", "02:00"), at(1, 30), true},
		{"wraps midnight, afternoon outside", merchant("20:00", "02:00"), at(15, 0), false},
		{"disabled gate always open", &model.Merchant{AIScheduleEnabled: false}, at(3, 0), true},
		{"malformed bounds disable gate", merchant("whenever", "18:00"), at(3, 0), true},
		{"equal bounds disable gate", merchant("09:00", "09:00"), at(3, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinSchedule(tt.m, tt.now))
		})
	}
}

func TestScheduleMessage(t *testing.T) {
	custom := "Cerrado por hoy, ¡hasta mañana!"

	t.Run("custom message wins", func(t *testing.T) {
		m := &model.Merchant{AIScheduleMessage: &custom}
		assert.Equal(t, custom, ScheduleMessage(m, "fallback"))
	})

	t.Run("fallback when unset", func(t *testing.T) {
		assert.Equal(t, "fallback", ScheduleMessage(&model.Merchant{}, "fallback"))
	})
}

func TestSystemPromptIncludesMerchantVoice(t *testing.T) {
	personality := "formal y directo"
	pizzas := "Pizzas"
	m := &model.Merchant{
		Name:          "La Nonna",
		AIPersonality: &personality,
	}
	products := []model.Product{{Name: "Pizza Margarita", Price: 10, CategoryName: &pizzas}}

	b := NewPromptBuilder(nil, nil, 10, 40)
	prompt := b.systemPrompt(m, products, CatalogBlock(products))

	assert.Contains(t, prompt, "La Nonna")
	assert.Contains(t, prompt, "formal y directo")
	assert.Contains(t, prompt, "Pizzas")
	assert.Contains(t, prompt, "ORDER_CONFIRMED")
}
