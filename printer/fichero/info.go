package fichero

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"
)

// The replies below follow two conventions. Text queries that get no
// reply yield "?"; integer queries yield -1. Neither is an error: the
// device isn't required to implement every subcommand, and a missing
// reply just means "unknown".

func (c *Client) textQuery(cmd []byte) (string, error) {
	r, err := c.Send(cmd, true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return "?", nil
	}
	if err != nil {
		return "", err
	}
	if len(r) == 0 {
		return "?", nil
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(r), "�")), nil
}

func (c *Client) Model() (string, error) {
	return c.textQuery(queryModel())
}

func (c *Client) Firmware() (string, error) {
	return c.textQuery(queryFirmware())
}

func (c *Client) Serial() (string, error) {
	return c.textQuery(querySerial())
}

func (c *Client) BootVersion() (string, error) {
	return c.textQuery(queryBootVersion())
}

// Battery returns the charge percentage, or -1 if the device didn't
// answer or the reply was too short.
func (c *Client) Battery() (int, error) {
	r, err := c.Send(queryBattery(), true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	if len(r) < 2 {
		return -1, nil
	}
	return int(r[len(r)-1]), nil
}

// Status queries and decodes the printer status byte. A missing reply
// decodes as 0xFF, i.e. every blocking condition set.
func (c *Client) Status() (Status, error) {
	r, err := c.Send(queryStatus(), true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return DecodeStatus(0xFF), nil
	}
	if err != nil {
		return Status{}, err
	}
	if len(r) == 0 {
		return DecodeStatus(0xFF), nil
	}
	return DecodeStatus(r[len(r)-1]), nil
}

// Density returns the configured density level, or -1 if unknown.
func (c *Client) Density() (int, error) {
	r, err := c.Send(queryDensity(), true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	if len(r) < 1 {
		return -1, nil
	}
	return int(r[len(r)-1]), nil
}

// ShutdownTimeout returns the auto-shutdown timeout in minutes, or -1
// if unknown.
func (c *Client) ShutdownTimeout() (int, error) {
	r, err := c.Send(queryShutdownTimeout(), true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	if len(r) < 2 {
		return -1, nil
	}
	return int(binary.BigEndian.Uint16(r[:2])), nil
}

// DeviceInfo is the parsed 10 FF 70 record. When the record doesn't
// split into at least six fields, Raw carries the unparsed text and the
// other fields are empty.
type DeviceInfo struct {
	Name       string
	ClassicMAC string
	BLEMAC     string
	Firmware   string
	Serial     string
	Battery    string
	Raw        string
}

func (i DeviceInfo) Parsed() bool {
	return i.Raw == ""
}

// Info fetches the full device info record. Malformed records degrade
// to a raw-text fallback rather than failing.
func (c *Client) Info() (DeviceInfo, error) {
	r, err := c.Send(queryDeviceInfo(), true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return DeviceInfo{}, nil
	}
	if err != nil {
		return DeviceInfo{}, err
	}

	text := strings.ToValidUTF8(string(r), "�")
	parts := strings.Split(text, "|")
	if len(parts) < 6 {
		slog.Warn("Device info record didn't parse",
			"fields", len(parts),
		)
		return DeviceInfo{Raw: text}, nil
	}
	return DeviceInfo{
		Name:       parts[0],
		ClassicMAC: parts[1],
		BLEMAC:     parts[2],
		Firmware:   parts[3],
		Serial:     parts[4],
		Battery:    parts[5] + "%",
	}, nil
}

// configWrite sends a config command and reports whether the device
// acknowledged it. Any reply other than the exact ack token, including
// none at all, is a plain false: these are user-correctable attempts,
// not errors.
func (c *Client) configWrite(cmd []byte) (bool, error) {
	r, err := c.Send(cmd, true, c.commandTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(r, ackToken), nil
}

// SetDensity configures the burn level: 0=light, 1=medium, 2=thick.
func (c *Client) SetDensity(level int) (bool, error) {
	if level < 0 || level > 2 {
		return false, errors.New("density level must be 0, 1 or 2")
	}
	return c.configWrite(setDensity(byte(level)))
}

func (c *Client) SetPaperMode(m PaperMode) (bool, error) {
	return c.configWrite(setPaperMode(m))
}

func (c *Client) SetShutdownTimeout(minutes int) (bool, error) {
	if minutes < 0 || minutes > 0xFFFF {
		return false, errors.New("shutdown timeout out of range")
	}
	return c.configWrite(setShutdownTimeout(uint16(minutes)))
}

func (c *Client) FactoryReset() (bool, error) {
	return c.configWrite(factoryReset())
}

// Wake sends the zero preamble that rouses the printhead controller.
// Fire-and-forget, like the rest of the print-control primitives.
func (c *Client) Wake() error {
	_, err := c.Send(wakePreamble(), false, 0)
	return err
}

func (c *Client) Enable() error {
	_, err := c.Send(enablePrinter(), false, 0)
	return err
}

func (c *Client) FeedDots(dots int) error {
	_, err := c.Send(feedDots(byte(dots)), false, 0)
	return err
}

func (c *Client) FormFeed() error {
	_, err := c.Send(formFeed(), false, 0)
	return err
}

// StopPrint ends the print procedure and waits, with an extended
// timeout, for the completion acknowledgement. Firmware revisions
// disagree on its shape: some send the marker byte, some the ack token,
// so both are accepted. False means the acknowledgement never arrived
// or was unrecognised, which doesn't imply the print failed.
func (c *Client) StopPrint() (bool, error) {
	r, err := c.Send(stopPrint(), true, c.stopTimeout)
	if errors.Is(err, ErrResponseTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(r) == 0 {
		return false, nil
	}
	return r[0] == stopDoneMarker || bytes.HasPrefix(r, ackToken), nil
}
