package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"flywatch/internal/forecast"
	"flywatch/internal/store"
)

// Sender delivers a rendered message to a chat channel. The actual chat
// transport lives outside this service; LogSender is the default used when
// none is plugged in.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// LogSender writes notifications to the process log.
type LogSender struct{}

func (LogSender) Send(_ context.Context, chatID int64, text string) error {
	log.Printf("notify chat %d:\n%s", chatID, text)
	return nil
}

// Dispatcher renders and sends flyability notifications.
type Dispatcher struct {
	sender Sender
}

// NewDispatcher creates a Dispatcher. A nil sender falls back to LogSender.
func NewDispatcher(sender Sender) *Dispatcher {
	if sender == nil {
		sender = LogSender{}
	}
	return &Dispatcher{sender: sender}
}

// WindowsChanged sends one combined message describing newly flyable and
// cancelled windows for a location. A no-op when both lists are empty.
func (d *Dispatcher) WindowsChanged(ctx context.Context, loc store.Location, newWindows []forecast.FlyableWindowInfo, cancelled []forecast.NotifiedWindow, current *forecast.CurrentConditions) error {
	if len(newWindows) == 0 && len(cancelled) == 0 {
		return nil
	}
	return d.sender.Send(ctx, loc.ChatID, RenderWindowsChanged(loc.Name, newWindows, cancelled, current))
}

// RenderWindowsChanged builds the combined "windows changed" message text.
func RenderWindowsChanged(locationName string, newWindows []forecast.FlyableWindowInfo, cancelled []forecast.NotifiedWindow, current *forecast.CurrentConditions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flyable windows changed for %s\n", locationName)

	if current != nil {
		fmt.Fprintf(&b, "\nNow: %.1f°C, wind %.1f m/s %s, humidity %.0f%%\n",
			current.Temperature, current.WindSpeed, CompassName(current.WindDirection), current.Humidity)
	}

	if len(newWindows) > 0 {
		b.WriteString("\nNew flyable windows:\n")
		for _, w := range newWindows {
			fmt.Fprintf(&b, "  + %s [%s]\n", w, w.Source)
			fmt.Fprintf(&b, "    temp %.1f..%.1f°C, wind avg %.1f m/s (max %.1f), humidity %.0f%%\n",
				w.MinTemp, w.MaxTemp, w.AvgWindSpeed, w.MaxWindSpeed, w.AvgHumidity)
		}
	}

	if len(cancelled) > 0 {
		b.WriteString("\nCancelled windows:\n")
		for _, n := range cancelled {
			fmt.Fprintf(&b, "  - %s [%s]\n", n, n.Source)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

var compassNames = []string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// CompassName converts a wind direction in degrees to its 16-point compass
// name.
func CompassName(degrees int) string {
	idx := int(float64(degrees)/22.5+0.5) % 16
	if idx < 0 {
		idx += 16
	}
	return compassNames[idx]
}
