package notify

// Имя события обмена, как его видит клиент.
type EventName string

const (
	EventSwapRequestCreated  EventName = "swap-request-created"
	EventSwapRequestAccepted EventName = "swap-request-accepted"
	EventSwapRequestRejected EventName = "swap-request-rejected"
)

// SwapEvent — полезная нагрузка события обмена.
type SwapEvent struct {
	RequestID          string `json:"requestId"`
	RequesterID        string `json:"requesterId"`
	TargetID           string `json:"targetId"`
	RequesterSlotTitle string `json:"requesterSlotTitle"`
	TargetSlotTitle    string `json:"targetSlotTitle"`
}

// Notifier доставляет события обмена конкретному пользователю.
// Доставка best-effort: ошибка доставки не влияет на уже
// закоммиченное состояние.
type Notifier interface {
	Publish(userID string, event EventName, data SwapEvent)
}

// NopNotifier — заглушка для тестов и оффлайн-запуска.
type NopNotifier struct{}

func (NopNotifier) Publish(string, EventName, SwapEvent) {}
