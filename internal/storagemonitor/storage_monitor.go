package storagemonitor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shirou/gopsutil/disk"
)

// usageThreshold is the disk usage percentage above which a warning is
// broadcast. Exhaustion itself is not prevented, only announced.
const usageThreshold = 80.0

// StorageLimitEvent represents the data sent when the storage limit is hit.
type StorageLimitEvent struct {
	Message     string
	UsedPercent float64
}

// EventBroker handles the subscription and broadcasting of storage limit events.
type EventBroker struct {
	subscribers []chan StorageLimitEvent
	mu          sync.Mutex
}

// NewEventBroker initializes a new EventBroker.
func NewEventBroker() *EventBroker {
	return &EventBroker{}
}

// Subscribe adds a new subscriber to the broker.
func (b *EventBroker) Subscribe() chan StorageLimitEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan StorageLimitEvent, 1) // Buffered channel
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Broadcast sends the event to all subscribers.
func (b *EventBroker) Broadcast(event StorageLimitEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subscriber := range b.subscribers {
		// Non-blocking send with select
		select {
		case subscriber <- event:
		default:
			fmt.Println("Warning: subscriber channel is full. Event not sent.")
		}
	}
}

// Monitor periodically checks disk usage on path and broadcasts a warning
// once usage crosses the threshold.
type Monitor struct {
	Broker *EventBroker
	path   string
}

func NewMonitor(path string) *Monitor {
	if path == "" {
		path = "/"
	}
	return &Monitor{Broker: NewEventBroker(), path: path}
}

// CheckOnce samples disk usage and broadcasts if over the threshold. It
// returns the sampled percentage.
func (m *Monitor) CheckOnce() (float64, error) {
	usage, err := disk.Usage(m.path)
	if err != nil {
		return 0, err
	}

	if usage.UsedPercent > usageThreshold {
		m.Broker.Broadcast(StorageLimitEvent{
			Message:     fmt.Sprintf("Disk usage %.2f%% exceeds %.0f%% threshold", usage.UsedPercent, usageThreshold),
			UsedPercent: usage.UsedPercent,
		})
	}
	return usage.UsedPercent, nil
}

// Start begins the periodic check loop. It returns immediately; the loop
// runs until stop is closed.
func (m *Monitor) Start(interval time.Duration, stop <-chan struct{}) {
	startLoggerSubscriber(m.Broker)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := m.CheckOnce(); err != nil {
					log.Printf("Error getting disk usage: %v", err)
				}
			case <-stop:
				return
			}
		}
	}()
}

func startLoggerSubscriber(broker *EventBroker) {
	logSub := broker.Subscribe()
	go func() {
		for event := range logSub {
			log.Printf("Storage monitor: %s\n", event.Message)
		}
	}()
}
