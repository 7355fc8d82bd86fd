package usp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Derived endpoint routes per region. An explicit endpoint URL set on
// the client overrides the derivation.
const (
	speechHostSuffix      = ".stt.speech.microsoft.com"
	translationHostSuffix = ".s2s.speech.microsoft.com"
	intentHostSuffix      = ".sr.speech.microsoft.com"
	dialogHostSuffix      = ".convai.speech.microsoft.com"

	translationPath = "/speech/translation/cognitiveservices/v1"
	intentPath      = "/speech/recognition/interactive/cognitiveservices/v1"
	dialogPath      = "/api/v1"
)

// buildEndpointURL derives the endpoint for a region, endpoint type
// and recognition mode.
func buildEndpointURL(region string, endpointType EndpointType, mode RecognitionMode) string {
	switch endpointType {
	case EndpointTypeTranslation:
		return "wss://" + region + translationHostSuffix + translationPath
	case EndpointTypeIntent:
		return "wss://" + region + intentHostSuffix + intentPath
	case EndpointTypeDialog:
		return "wss://" + region + dialogHostSuffix + dialogPath
	default:
		return "wss://" + region + speechHostSuffix +
			"/speech/recognition/" + mode.pathSegment() + "/cognitiveservices/v1"
	}
}

// resolveEndpoint parses and validates the endpoint URL and merges the
// client's query parameters into it. Validation is purely syntactic:
// a malformed port fails here, before any network I/O.
func resolveEndpoint(rawURL string, params url.Values) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		if strings.Contains(err.Error(), "invalid port") {
			return nil, ErrInvalidPort
		}
		return nil, NewErrorWithCause(ErrorStatusConfiguration, fmt.Sprintf("invalid endpoint URL %q", rawURL), err)
	}

	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, ErrInvalidScheme
	}
	if u.Hostname() == "" {
		return nil, NewError(ErrorStatusConfiguration, "endpoint URL has no host")
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return nil, ErrInvalidPort
		}
	}

	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			q.Del(key)
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}
