package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case Room:
		o.printRoom(v)
	case Stats:
		o.printStats(v)
	case PlayResult:
		o.printPlayResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Rating      int            `json:"rating"`
	Score       int            `json:"score"`
	Friends     []string       `json:"friends"`
	History     []HistoryEntry `json:"history"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HistoryEntry response type
type HistoryEntry struct {
	OpponentID   string    `json:"opponent_id"`
	OpponentName string    `json:"opponent_name"`
	Result       string    `json:"result"`
	PointsEarned int       `json:"points_earned"`
	Move         string    `json:"move"`
	OpponentMove string    `json:"opponent_move"`
	At           time.Time `json:"at"`
}

// Room response type
type Room struct {
	ID             string       `json:"id"`
	State          string       `json:"state"`
	Host           *Participant `json:"host"`
	Guest          *Participant `json:"guest"`
	CreatedAt      time.Time    `json:"created_at"`
	DisconnectedAt *time.Time   `json:"disconnected_at,omitempty"`
	Outcome        string       `json:"outcome,omitempty"`
	Winner         string       `json:"winner,omitempty"`
}

// Participant response type
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Rating      int    `json:"rating"`
	Score       int    `json:"score"`
	Connected   bool   `json:"connected"`
	Ready       bool   `json:"ready"`
	HasMoved    bool   `json:"has_moved"`
}

// Stats response type
type Stats struct {
	TotalRooms   int `json:"total_rooms"`
	TotalChoices int `json:"total_choices"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// PlayResult summarises one round played over the gateway
type PlayResult struct {
	RoomID       string `json:"room_id"`
	Role         string `json:"role"`
	OpponentID   string `json:"opponent_id"`
	Move         string `json:"move"`
	OpponentMove string `json:"opponent_move"`
	Result       string `json:"result"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Rating: %d\n", p.Rating)
	fmt.Printf("Score: %d\n", p.Score)
	if len(p.Friends) > 0 {
		fmt.Printf("Friends: %s\n", strings.Join(p.Friends, ", "))
	}
	if len(p.History) > 0 {
		fmt.Printf("History (%d):\n", len(p.History))
		for _, h := range p.History {
			fmt.Printf("  - %s vs %s: %s vs %s, %s (+%d)\n",
				h.At.Format("2006-01-02 15:04"), h.OpponentID, h.Move, h.OpponentMove, h.Result, h.PointsEarned)
		}
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.ID)
	fmt.Printf("State: %s\n", r.State)
	fmt.Printf("Created: %s\n", r.CreatedAt.Format(time.RFC3339))
	for _, p := range []*Participant{r.Host, r.Guest} {
		if p == nil {
			continue
		}
		flags := []string{}
		if !p.Connected {
			flags = append(flags, "disconnected")
		}
		if p.Ready {
			flags = append(flags, "ready")
		}
		if p.HasMoved {
			flags = append(flags, "moved")
		}
		flagStr := ""
		if len(flags) > 0 {
			flagStr = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Printf("  %s: %s (%s) rating %d%s\n", p.Role, p.DisplayName, p.ID, p.Rating, flagStr)
	}
	if r.Outcome != "" {
		fmt.Printf("Outcome: %s\n", r.Outcome)
	}
	if r.Winner != "" {
		fmt.Printf("Winner: %s\n", r.Winner)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Rooms: %d\n", s.TotalRooms)
	fmt.Printf("Pending choices: %d\n", s.TotalChoices)
}

func (o *Output) printPlayResult(p PlayResult) {
	fmt.Printf("Room %s (%s) vs %s\n", p.RoomID, p.Role, p.OpponentID)
	fmt.Printf("You played %s, they played %s\n", p.Move, p.OpponentMove)
	fmt.Printf("Result: %s\n", p.Result)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
