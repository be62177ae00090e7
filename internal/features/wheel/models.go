// Package wheel реализует колесо удачи: 8 сегментов, равновероятный выбор.
// models.go описывает сегменты и результат вращения.
package wheel

// RewardKind — что даёт сегмент.
type RewardKind int

const (
	Ticket RewardKind = iota // Билеты (0 = "Try Again")
	Cash                     // Деньги на баланс
)

func (k RewardKind) String() string {
	if k == Cash {
		return "cash"
	}
	return "ticket"
}

// Segment — один сектор колеса.
type Segment struct {
	Label    string     // Надпись на секторе
	Kind     RewardKind // Тип награды
	Quantity int        // Количество (>= 0)
	Color    string     // Цвет сектора для отрисовки
}

// IsEmpty — сектор без награды ("Try Again").
func (s Segment) IsEmpty() bool {
	return s.Quantity == 0
}

// DefaultSegments — каталог сегментов по часовой стрелке от указателя.
// Каждый сегмент выпадает с вероятностью 1/8, независимо от цвета и размера.
var DefaultSegments = []Segment{
	{Label: "1 Ticket", Kind: Ticket, Quantity: 1, Color: "#FFD700"},
	{Label: "₹1 Cash", Kind: Cash, Quantity: 1, Color: "#FF4500"},
	{Label: "5 Tickets", Kind: Ticket, Quantity: 5, Color: "#32CD32"},
	{Label: "Try Again", Kind: Ticket, Quantity: 0, Color: "#1E90FF"},
	{Label: "2 Tickets", Kind: Ticket, Quantity: 2, Color: "#9370DB"},
	{Label: "100 Tickets", Kind: Ticket, Quantity: 100, Color: "#FF69B4"},
	{Label: "₹5 Cash", Kind: Cash, Quantity: 5, Color: "#00CED1"},
	{Label: "1 Ticket", Kind: Ticket, Quantity: 1, Color: "#FFA500"},
}

// Outcome — результат одного вращения.
type Outcome struct {
	Index    int     // Индекс выпавшего сегмента
	Segment  Segment // Сам сегмент
	Rotation float64 // Итоговый угол колеса в градусах (для отрисовки)
}
