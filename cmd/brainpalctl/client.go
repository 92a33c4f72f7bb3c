package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient() *resty.Client {
	c := resty.New().
		SetBaseURL(addrFlag).
		SetTimeout(90 * time.Second)
	if tokenFlag != "" {
		c.SetAuthToken(tokenFlag)
	}
	return c
}

// doRequest executes the prepared request and returns the raw response body,
// converting non-2xx statuses into errors.
func doRequest(req *resty.Request, method, path string) ([]byte, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}

func doGet(path string) ([]byte, error) {
	return doRequest(newClient().R(), "GET", path)
}

func doPostJSON(path string, payload any) ([]byte, error) {
	return doRequest(newClient().R().SetBody(payload), "POST", path)
}

func doPutJSON(path string, payload any) ([]byte, error) {
	return doRequest(newClient().R().SetBody(payload), "PUT", path)
}

func doDelete(path string) ([]byte, error) {
	return doRequest(newClient().R(), "DELETE", path)
}
