package scorm

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// HTTPAPI implements API against an LMS runtime bridge that proxies
// API_1484_11 over HTTP. Hosts that sandbox content in a separate origin
// expose this instead of a window-reachable API object.
//
// Every call is synchronous from the caller's point of view; transport
// failures degrade to the unsuccessful return value, never an error, to
// match the host-object contract.
type HTTPAPI struct {
	http *http.Client
	base string
}

type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewHTTPAPI(cfg HTTPConfig) *HTTPAPI {
	t := cfg.Timeout
	if t == 0 {
		t = 10 * time.Second
	}
	return &HTTPAPI{
		http: &http.Client{Timeout: t},
		base: cfg.BaseURL,
	}
}

type bridgeReq struct {
	Element string `json:"element,omitempty"`
	Value   string `json:"value,omitempty"`
}

type bridgeResp struct {
	OK    bool   `json:"ok"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func (c *HTTPAPI) call(path string, req bridgeReq) bridgeResp {
	body, _ := json.Marshal(req)
	httpReq, err := http.NewRequest("POST", c.base+path, bytes.NewReader(body))
	if err != nil {
		return bridgeResp{}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(httpReq)
	if err != nil {
		return bridgeResp{}
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return bridgeResp{}
	}
	var out bridgeResp
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return bridgeResp{}
	}
	return out
}

func (c *HTTPAPI) Initialize() bool { return c.call("/initialize", bridgeReq{}).OK }
func (c *HTTPAPI) Terminate() bool  { return c.call("/terminate", bridgeReq{}).OK }
func (c *HTTPAPI) Commit() bool     { return c.call("/commit", bridgeReq{}).OK }

func (c *HTTPAPI) GetValue(element string) string {
	return c.call("/getvalue", bridgeReq{Element: element}).Value
}

func (c *HTTPAPI) SetValue(element, value string) bool {
	return c.call("/setvalue", bridgeReq{Element: element, Value: value}).OK
}

func (c *HTTPAPI) GetLastError() string {
	return c.call("/lasterror", bridgeReq{}).Value
}

func (c *HTTPAPI) GetErrorString(code string) string {
	return c.call("/errorstring", bridgeReq{Value: code}).Value
}
