// This package assumes a single connected printer at a time; the
// correlator's exclusion discipline depends on it.

package fichero

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"
)

// The D11s exposes several BLE UART services; the 18F0 one works as
// well as any. 2AF1 accepts writes, 2AF0 delivers notifications.
var (
	serviceUUID = bluetooth.New16BitUUID(0x18F0)
	writerUUID  = bluetooth.New16BitUUID(0x2AF1)
	notifyUUID  = bluetooth.New16BitUUID(0x2AF0)
)

// Advertised name prefixes for this device class.
var namePrefixes = []string{"FICHERO", "D11s_"}

const scanTimeout = 8 * time.Second

// Connection owns the BLE link to one printer and feeds its
// notification stream into a Client.
type Connection struct {
	adapter  *bluetooth.Adapter
	device   bluetooth.Device
	writer   bluetooth.DeviceCharacteristic
	notifier bluetooth.DeviceCharacteristic
	address  bluetooth.Address
	client   *Client

	// connected is also written by the adapter's connect handler, which
	// runs on the BLE stack's goroutine
	connected atomic.Bool
}

func newConnection() (*Connection, error) {
	adapter := bluetooth.DefaultAdapter

	if err := adapter.Enable(); err != nil {
		slog.Error("Failed to enable Bluetooth", "err", err)
		return nil, err
	}

	conn := &Connection{adapter: adapter}
	adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		if connected {
			slog.Info("Connected!")
		} else if d.Address == conn.address && conn.connected.Load() {
			slog.Info("Disconnected!")
			conn.connected.Store(false)
		}
	})

	return conn, nil
}

// Discover scans for a printer advertising one of the known name
// prefixes and returns an unconnected Connection for it.
func Discover() (*Connection, error) {
	c, err := newConnection()
	if err != nil {
		return nil, err
	}

	slog.Info("Scanning for printer...")
	devices := make(chan bluetooth.ScanResult, 1)

	go func() {
		err := c.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			for _, prefix := range namePrefixes {
				if strings.HasPrefix(name, prefix) {
					slog.Info("Found device:",
						"deviceName", name,
						"address", result.Address.String(),
					)
					devices <- result
					adapter.StopScan()
					return
				}
			}
		})
		if err != nil {
			slog.Error("Failed to scan for devices:",
				"err", err,
			)
			close(devices)
		}
	}()

	select {
	case dev, ok := <-devices:
		if !ok {
			return nil, errors.New("No devices found")
		}
		c.address = dev.Address
		return c, nil
	case <-time.After(scanTimeout):
		c.adapter.StopScan()
		return nil, errors.New("No Fichero/D11s printer found. Is it turned on?")
	}
}

// FromAddress skips scanning and targets a known MAC.
func FromAddress(address string) (*Connection, error) {
	c, err := newConnection()
	if err != nil {
		return nil, err
	}

	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, err
	}
	c.address = bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}
	return c, nil
}

// Write implements DeviceWriter over the write characteristic.
func (c *Connection) Write(data []byte) error {
	_, err := c.writer.WriteWithoutResponse(data)

	if err != nil {
		slog.Error("Couldn't write data", "error", err)
	} else {
		slog.Debug("Wrote data to device", "size", len(data))
	}

	return err
}

// Connect establishes the GATT link, wires notifications into a fresh
// Client and returns once commands can be issued.
func (c *Connection) Connect() error {
	if c.connected.Load() {
		return nil
	}

	slog.Debug("Connecting to device...")
	device, err := c.adapter.Connect(c.address, bluetooth.ConnectionParams{})
	if err != nil {
		slog.Error("Failed to connect to device:",
			"err", err,
		)
		return err
	}

	slog.Debug("Discovering service...")
	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		slog.Error("Failed to discover service:",
			"err", err,
		)
		device.Disconnect()
		return err
	}

	slog.Debug("Discovering characteristics...")
	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{writerUUID, notifyUUID})
	if err != nil {
		slog.Error("Failed to discover characteristics:",
			"err", err,
		)
		device.Disconnect()
		return err
	}
	c.writer = characteristics[0]
	c.notifier = characteristics[1]
	c.device = device

	c.client = NewClient(c)
	err = c.notifier.EnableNotifications(func(data []byte) {
		c.client.HandleNotification(data)
	})
	if err != nil {
		slog.Error("Couldn't enable notifications:",
			"error", err,
		)
		device.Disconnect()
		return err
	}

	c.connected.Store(true)
	return nil
}

func (c *Connection) Disconnect() error {
	if c.connected.Swap(false) {
		c.device.Disconnect()
	}
	return nil
}

func (c *Connection) IsConnected() bool {
	return c.connected.Load()
}

// Client returns the command client for the connected printer, nil
// before Connect.
func (c *Connection) Client() *Client {
	return c.client
}
