package model

// PrintingRequest is the JSON body of a print submission. Data holds one
// byte per pixel, row-major, 1 = black.
type PrintingRequest struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Data    []byte `json:"data"`
	Density int    `json:"density"`
	Paper   string `json:"paper,omitempty"`
	Copies  int    `json:"copies,omitempty"`
}

type StatusResponse struct {
	Raw        byte   `json:"raw"`
	Ready      bool   `json:"ready"`
	Flags      string `json:"flags"`
	Printing   bool   `json:"printing"`
	CoverOpen  bool   `json:"coverOpen"`
	NoPaper    bool   `json:"noPaper"`
	LowBattery bool   `json:"lowBattery"`
	Overheated bool   `json:"overheated"`
	Charging   bool   `json:"charging"`
}

type DeviceInfoResponse struct {
	Model           string `json:"model"`
	FirmwareVersion string `json:"firmware"`
	BootVersion     string `json:"boot"`
	Serial          string `json:"serial"`
	BatteryLevel    int    `json:"battery"`
	ShutdownTimeout int    `json:"shutdownMinutes"`
	Status          string `json:"status"`
}

// JobEvent is pushed over the /events websocket while a job runs.
type JobEvent struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Copy    int    `json:"copy,omitempty"`
	Copies  int    `json:"copies,omitempty"`
	Message string `json:"message,omitempty"`
}

type JobResponse struct {
	ID            string   `json:"id"`
	CopiesPrinted int      `json:"copiesPrinted"`
	Warnings      []string `json:"warnings,omitempty"`
}
