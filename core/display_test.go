package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type busWrite struct {
	enable uint8
	bcd    uint8
}

type recordingBus struct {
	writes []busWrite
	err    error
}

func (b *recordingBus) WriteDigit(enable uint8, bcd uint8) error {
	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, busWrite{enable, bcd})
	return nil
}

type recordingSleeper struct {
	sleeps []time.Duration
	after  func()
}

func (s *recordingSleeper) Sleep(d time.Duration) {
	s.sleeps = append(s.sleeps, d)
	if s.after != nil {
		s.after()
	}
}

func onesCount(v uint8) int {
	n := 0
	for ; v != 0; v &= v - 1 {
		n++
	}
	return n
}

func TestMultiplexerSweepShowsEveryDigitOnce(t *testing.T) {
	var c TimeCounter
	if err := c.Preset(Digits{1, 2, 3, 4, 5, 0}); err != nil {
		t.Fatalf("Preset failed: %v", err)
	}
	bus := &recordingBus{}
	m, err := NewMultiplexer(&c, bus, 2*time.Millisecond, &recordingSleeper{})
	if err != nil {
		t.Fatalf("NewMultiplexer failed: %v", err)
	}

	// Start mid-sweep so the window is not aligned with position 0
	for i := 0; i < 4; i++ {
		if _, err := m.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	bus.writes = nil

	seen := make(map[int]bool)
	for i := 0; i < NumDigits; i++ {
		pos, err := m.Step()
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if seen[pos] {
			t.Errorf("Position %d shown twice in one window", pos)
		}
		seen[pos] = true

		w := bus.writes[i]
		if onesCount(w.enable) != 1 || w.enable&^EnableMask != 0 {
			t.Errorf("Enable mask %06b is not one-hot", w.enable)
		}
		if w.enable != EnableFor(pos) {
			t.Errorf("Position %d drove enable %06b, expected %06b", pos, w.enable, EnableFor(pos))
		}
		if w.bcd != c.Digit(pos) {
			t.Errorf("Position %d drove %d, expected %d", pos, w.bcd, c.Digit(pos))
		}
	}
	if len(seen) != NumDigits {
		t.Errorf("Expected all %d positions, saw %d", NumDigits, len(seen))
	}
}

func TestMultiplexerRightmostIsSecondsOnes(t *testing.T) {
	if EnableFor(SecondsOnes) != 1<<5 {
		t.Errorf("Seconds ones should light enable line 5, got %06b", EnableFor(SecondsOnes))
	}
	if EnableFor(HoursTens) != 1 {
		t.Errorf("Hours tens should light enable line 0, got %06b", EnableFor(HoursTens))
	}
}

func TestMultiplexerRejectsLongDwell(t *testing.T) {
	var c TimeCounter
	_, err := NewMultiplexer(&c, &recordingBus{}, 3*time.Millisecond, &recordingSleeper{})
	if !errors.Is(err, ErrDwellTooLong) {
		t.Errorf("Expected ErrDwellTooLong for 18ms sweep, got %v", err)
	}

	_, err = NewMultiplexer(&c, &recordingBus{}, 0, &recordingSleeper{})
	if !errors.Is(err, ErrDwellZero) {
		t.Errorf("Expected ErrDwellZero, got %v", err)
	}
}

func TestMultiplexerRunDwellsAndStops(t *testing.T) {
	var c TimeCounter
	bus := &recordingBus{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeper := &recordingSleeper{}
	sleeper.after = func() {
		if len(sleeper.sleeps) == 12 {
			cancel()
		}
	}

	m, err := NewMultiplexer(&c, bus, 2*time.Millisecond, sleeper)
	if err != nil {
		t.Fatalf("NewMultiplexer failed: %v", err)
	}

	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(bus.writes) != 12 {
		t.Errorf("Expected two full sweeps (12 writes), got %d", len(bus.writes))
	}
	for _, d := range sleeper.sleeps {
		if d != 2*time.Millisecond {
			t.Errorf("Expected 2ms dwell, got %v", d)
		}
	}
}

func TestMultiplexerCountsWriteErrors(t *testing.T) {
	var c TimeCounter
	bus := &recordingBus{err: errors.New("bus fault")}
	m, err := NewMultiplexer(&c, bus, time.Millisecond, &recordingSleeper{})
	if err != nil {
		t.Fatalf("NewMultiplexer failed: %v", err)
	}

	if _, err := m.Step(); err == nil {
		t.Error("Expected write error")
	}
	if m.WriteErrors() != 1 {
		t.Errorf("Expected 1 write error, got %d", m.WriteErrors())
	}
	if m.Position() != 1 {
		t.Errorf("Cursor should advance past a failed write, at %d", m.Position())
	}
}

func TestGPIODisplayBusActiveLow(t *testing.T) {
	gpio := NewMockGPIODriver()
	decoder := [4]GPIOPin{0, 1, 2, 3}
	enable := [NumDigits]GPIOPin{4, 5, 6, 7, 8, 9}

	bus, err := NewGPIODisplayBus(gpio, decoder, enable, true)
	if err != nil {
		t.Fatalf("NewGPIODisplayBus failed: %v", err)
	}
	for _, pin := range enable {
		if !gpio.ReadPin(pin) {
			t.Errorf("Enable pin %d should start deasserted (high)", pin)
		}
	}

	if err := bus.WriteDigit(EnableFor(SecondsOnes), 7); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}
	assertEnabled := func(want GPIOPin) {
		t.Helper()
		for _, pin := range enable {
			lit := !gpio.ReadPin(pin)
			if lit != (pin == want) {
				t.Errorf("Enable pin %d lit=%v, expected only pin %d lit", pin, lit, want)
			}
		}
	}
	assertEnabled(9)
	for i, pin := range decoder {
		if got, want := gpio.ReadPin(pin), 7&(1<<i) != 0; got != want {
			t.Errorf("Decoder bit %d = %v, expected %v", i, got, want)
		}
	}

	if err := bus.WriteDigit(EnableFor(SecondsTens), 5); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}
	assertEnabled(8)
}

func TestGPIODisplayBusSwitchOrder(t *testing.T) {
	gpio := NewMockGPIODriver()
	decoder := [4]GPIOPin{0, 1, 2, 3}
	enable := [NumDigits]GPIOPin{4, 5, 6, 7, 8, 9}
	bus, err := NewGPIODisplayBus(gpio, decoder, enable, false)
	if err != nil {
		t.Fatalf("NewGPIODisplayBus failed: %v", err)
	}
	if err := bus.WriteDigit(EnableFor(0), 1); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}

	gpio.writes = nil
	if err := bus.WriteDigit(EnableFor(1), 2); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}

	// Old digit off first, new digit on last
	first, last := gpio.writes[0], gpio.writes[len(gpio.writes)-1]
	if first.pin != 9 || first.value {
		t.Errorf("Expected pin 9 switched off first, got %+v", first)
	}
	if last.pin != 8 || !last.value {
		t.Errorf("Expected pin 8 switched on last, got %+v", last)
	}
}

func TestGPIODisplayBusRecoversFromPinFailure(t *testing.T) {
	gpio := NewMockGPIODriver()
	decoder := [4]GPIOPin{0, 1, 2, 3}
	enable := [NumDigits]GPIOPin{4, 5, 6, 7, 8, 9}
	bus, err := NewGPIODisplayBus(gpio, decoder, enable, false)
	if err != nil {
		t.Fatalf("NewGPIODisplayBus failed: %v", err)
	}
	litPins := func() []GPIOPin {
		var lit []GPIOPin
		for _, pin := range enable {
			if gpio.ReadPin(pin) {
				lit = append(lit, pin)
			}
		}
		return lit
	}

	if err := bus.WriteDigit(EnableFor(0), 1); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}

	// New digit fails to light: old digit is already off
	gpio.FailPin(8)
	if err := bus.WriteDigit(EnableFor(1), 2); !errors.Is(err, errMockPin) {
		t.Fatalf("Expected pin failure, got %v", err)
	}
	if lit := litPins(); len(lit) != 0 {
		t.Errorf("Expected no digit lit after failed enable, got %v", lit)
	}
	if bus.current != 0 {
		t.Errorf("Expected no enable tracked, got %06b", bus.current)
	}

	// Old digit fails to switch off: it stays tracked and is retried
	gpio.Heal()
	if err := bus.WriteDigit(EnableFor(1), 2); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}
	gpio.FailPin(8)
	if err := bus.WriteDigit(EnableFor(2), 3); !errors.Is(err, errMockPin) {
		t.Fatalf("Expected pin failure, got %v", err)
	}
	if bus.current != EnableFor(1) {
		t.Errorf("Expected the stuck digit still tracked, got %06b", bus.current)
	}

	gpio.Heal()
	if err := bus.WriteDigit(EnableFor(2), 3); err != nil {
		t.Fatalf("WriteDigit failed: %v", err)
	}
	if lit := litPins(); len(lit) != 1 || lit[0] != 7 {
		t.Errorf("Expected only pin 7 lit, got %v", lit)
	}
	if bus.current != EnableFor(2) {
		t.Errorf("Expected current %06b, got %06b", EnableFor(2), bus.current)
	}

	// Decoder failure leaves the new digit dark
	gpio.FailPin(0)
	if err := bus.WriteDigit(EnableFor(3), 5); !errors.Is(err, errMockPin) {
		t.Fatalf("Expected pin failure, got %v", err)
	}
	if lit := litPins(); len(lit) != 0 {
		t.Errorf("Expected no digit lit after decoder failure, got %v", lit)
	}
}
