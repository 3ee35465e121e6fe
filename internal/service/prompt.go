package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/woox/commerce-relay-go/internal/errors"
	"github.com/woox/commerce-relay-go/internal/llm"
	"github.com/woox/commerce-relay-go/internal/model"
	"github.com/woox/commerce-relay-go/internal/repository"
)

const (
	defaultPersonality  = "amable, servicial y eficiente"
	defaultIdentity     = "Tu objetivo es ayudar al cliente a realizar un pedido de forma fluida."
	defaultRestrictions = "No inventes productos que no estén en el catálogo."
	fallbackCategory    = "Otros"
)

// PromptContext is the assembled LLM input for one inbound message.
type PromptContext struct {
	SystemPrompt string
	// CatalogBlock is the menu portion of the prompt, kept separately so
	// the interpreter can recover omitted prices from it.
	CatalogBlock string
	Turns        []llm.Turn
}

// PromptBuilder assembles the system prompt and the windowed conversation
// history for a completion request.
type PromptBuilder struct {
	products      repository.ProductRepository
	messages      repository.MessageRepository
	historyWindow int
	catalogLimit  int
}

func NewPromptBuilder(products repository.ProductRepository, messages repository.MessageRepository, historyWindow, catalogLimit int) *PromptBuilder {
	return &PromptBuilder{
		products:      products,
		messages:      messages,
		historyWindow: historyWindow,
		catalogLimit:  catalogLimit,
	}
}

// Build fetches the catalog and history and assembles the prompt. The
// current inbound message is expected to already be persisted, so it
// arrives in the history window rather than being appended separately.
func (b *PromptBuilder) Build(ctx context.Context, merchant *model.Merchant, conversationID string) (*PromptContext, error) {
	var products []model.Product
	if merchant.AIUseCatalog {
		var err error
		products, err = b.products.FindAvailableByMerchantID(ctx, merchant.ID, b.catalogLimit)
		if err != nil {
			return nil, apperrors.Database(err)
		}
	}

	history, err := b.messages.FindRecentByConversationID(ctx, conversationID, b.historyWindow)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	catalog := CatalogBlock(products)
	return &PromptContext{
		SystemPrompt: b.systemPrompt(merchant, products, catalog),
		CatalogBlock: catalog,
		Turns:        HistoryTurns(history),
	}, nil
}

// CatalogBlock renders available products grouped by category, one bullet
// per item. Unavailable products never reach this function.
func CatalogBlock(products []model.Product) string {
	if len(products) == 0 {
		return ""
	}

	groups := make(map[string][]string)
	var order []string
	for _, p := range products {
		category := fallbackCategory
		if p.CategoryName != nil && *p.CategoryName != "" {
			category = *p.CategoryName
		}
		if _, seen := groups[category]; !seen {
			order = append(order, category)
		}
		groups[category] = append(groups[category], fmt.Sprintf("• %s $%s", p.Name, formatPrice(p.Price)))
	}

	sections := make([]string, 0, len(order))
	for _, category := range order {
		sections = append(sections, fmt.Sprintf("*%s*\n%s", category, strings.Join(groups[category], "\n")))
	}
	return strings.Join(sections, "\n\n")
}

func (b *PromptBuilder) systemPrompt(m *model.Merchant, products []model.Product, catalog string) string {
	personality := defaultPersonality
	if m.AIPersonality != nil && *m.AIPersonality != "" {
		personality = *m.AIPersonality
	}
	identity := defaultIdentity
	if m.AISystemPrompt != nil && *m.AISystemPrompt != "" {
		identity = *m.AISystemPrompt
	}
	restrictions := defaultRestrictions
	if m.AIRestrictions != nil && *m.AIRestrictions != "" {
		restrictions = *m.AIRestrictions
	}

	return fmt.Sprintf(`Eres el asistente virtual de %s.
Personalidad: %s.

INSTRUCCIONES DE IDENTIDAD:
%s

RESTRICCIONES:
%s

REGLAS DE INTERACCIÓN:
1. **Flujo Natural**: NO uses etiquetas como "Ticket:", "Datos:" o "Validación:". Habla de forma humana y cercana.
2. **Saludo**: En el primer mensaje, saluda, menciona brevemente las categorías (%s) y pregunta qué desea el cliente.
3. **Catálogo**: Muestra el menú completo SOLO si el cliente lo solicita:
%s
4. **Cálculos**: Realiza los cálculos de forma precisa. Usa **negrita** para resaltar productos.

PROTOCOLO DE CIERRE (PASO A PASO):
- PASO A: Presenta un resumen del pedido con el total y pregunta si es correcto.
- PASO B: Una vez confirmado el pedido, solicita Nombre, Dirección y Teléfono (de forma natural).
- PASO C: Repite los datos al cliente para una confirmación final.
- PASO D: Tras el "Sí" final, genera el código: [ORDER_CONFIRMED: {"customer_name":"...","address":"...","phone":"...","total":0}] e indica al cliente que su pedido ha sido registrado con éxito.`,
		m.Name, personality, identity, restrictions, categoryList(products), catalog)
}

func categoryList(products []model.Product) string {
	seen := make(map[string]bool)
	for _, p := range products {
		category := fallbackCategory
		if p.CategoryName != nil && *p.CategoryName != "" {
			category = *p.CategoryName
		}
		seen[category] = true
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return strings.Join(categories, ", ")
}

// HistoryTurns maps persisted messages (newest first, as the repository
// returns them) to an oldest-first alternating turn sequence. Adjacent
// same-role turns are merged and a leading model turn is dropped, since
// some providers enforce strict user/model alternation starting with user.
func HistoryTurns(history []model.Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		role := llm.RoleModel
		if msg.SenderType == model.SenderCustomer {
			role = llm.RoleUser
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Text += "\n" + msg.Content
			continue
		}
		turns = append(turns, llm.Turn{Role: role, Text: msg.Content})
	}

	if len(turns) > 0 && turns[0].Role == llm.RoleModel {
		turns = turns[1:]
	}
	return turns
}

// WithinSchedule reports whether now falls inside the merchant's active
// hours in the merchant's timezone. Windows may wrap midnight, e.g.
// 20:00 to 02:00. Malformed bounds disable the gate rather than silencing
// the assistant.
func WithinSchedule(m *model.Merchant, now time.Time) bool {
	if !m.AIScheduleEnabled {
		return true
	}
	start, okStart := parseClock(m.AIScheduleStart)
	end, okEnd := parseClock(m.AIScheduleEnd)
	if !okStart || !okEnd || start == end {
		return true
	}

	local := now.In(m.Location())
	minutes := local.Hour()*60 + local.Minute()

	if start < end {
		return minutes >= start && minutes < end
	}
	return minutes >= start || minutes < end
}

// ScheduleMessage is the out-of-hours reply for one merchant.
func ScheduleMessage(m *model.Merchant, fallback string) string {
	if m.AIScheduleMessage != nil && *m.AIScheduleMessage != "" {
		return *m.AIScheduleMessage
	}
	return fallback
}

func parseClock(value string) (int, bool) {
	var hours, minutes int
	if _, err := fmt.Sscanf(value, "%d:%d", &hours, &minutes); err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

func formatPrice(price float64) string {
	s := fmt.Sprintf("%.2f", price)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
