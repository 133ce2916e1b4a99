package portal

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/gisbox/gisbox/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

var (
	// ErrUnauthorized is returned when the portal rejects our token or
	// credentials.
	ErrUnauthorized = errors.New("401 unauthorized")

	// ErrNotFound is returned when the requested resource doesn't exist
	// on the portal.
	ErrNotFound = errors.New("not found")
)

const restBase = "/sharing/rest"

// transport handles the HTTP plumbing shared by all portal operations:
// the base URL, the authentication token, and the JSON envelope the
// portal wraps every response in.
type transport struct {
	baseURL string
	token   string
	client  *http.Client
}

func newTransport(baseURL string) *transport {
	return &transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// apiError is the error envelope the portal returns with a 200 status.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (err apiError) Error() string {
	return fmt.Sprintf("portal error %d: %s", err.Code, err.Message)
}

// errEnvelope detects portal-level errors in otherwise successful
// responses.
type errEnvelope struct {
	Error *apiError `json:"error"`
}

func (t *transport) endpoint(path string) string {
	return t.baseURL + restBase + path
}

func (t *transport) addCommonParams(params url.Values) url.Values {
	if params == nil {
		params = url.Values{}
	}
	params.Set("f", "json")
	if t.token != "" {
		params.Set("token", t.token)
	}
	return params
}

// getJSON performs a GET request and decodes the JSON response into
// target.
func (t *transport) getJSON(path string, params url.Values, target interface{}) error {
	params = t.addCommonParams(params)
	resp, err := t.client.Get(t.endpoint(path) + "?" + params.Encode())
	if err != nil {
		return errors.WithContext(err, "request")
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}

// postForm performs a form-encoded POST request and decodes the JSON
// response into target.
func (t *transport) postForm(path string, params url.Values, target interface{}) error {
	params = t.addCommonParams(params)
	resp, err := t.client.PostForm(t.endpoint(path), params)
	if err != nil {
		return errors.WithContext(err, "request")
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}

// postFile performs a multipart POST request with the contents of
// dataPath as the `file` part, and decodes the JSON response into
// target.
func (t *transport) postFile(path string, params url.Values, dataPath string,
	target interface{}) error {

	file, err := fs.Open(dataPath)
	if err != nil {
		return errors.WithContext(err, "open upload")
	}
	defer file.Close()

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	for key, vals := range t.addCommonParams(params) {
		for _, val := range vals {
			if err := writer.WriteField(key, val); err != nil {
				return errors.WithContext(err, "write field")
			}
		}
	}

	part, err := writer.CreateFormFile("file", file.Name())
	if err != nil {
		return errors.WithContext(err, "create file part")
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.WithContext(err, "copy upload")
	}
	if err := writer.Close(); err != nil {
		return errors.WithContext(err, "finish multipart body")
	}

	resp, err := t.client.Post(t.endpoint(path), writer.FormDataContentType(),
		strings.NewReader(body.String()))
	if err != nil {
		return errors.WithContext(err, "request")
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}

// getStream performs a GET request and returns the raw response body
// along with the filename from the Content-Disposition header, if any.
// The caller is responsible for closing the stream.
func (t *transport) getStream(path string, params url.Values) (io.ReadCloser, string, error) {
	params = t.addCommonParams(params)
	resp, err := t.client.Get(t.endpoint(path) + "?" + params.Encode())
	if err != nil {
		return nil, "", errors.WithContext(err, "request")
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, "", err
	}

	var filename string
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if _, dispParams, err := mime.ParseMediaType(disposition); err == nil {
			filename = dispParams["filename"]
		}
	}
	return resp.Body, filename, nil
}

func decodeResponse(resp *http.Response, target interface{}) error {
	if err := checkStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithContext(err, "read body")
	}

	// The portal reports most failures with a 200 status and an error
	// envelope in the body, so we have to check for it explicitly.
	var envelope errEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		if envelope.Error.Code == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return *envelope.Error
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WithContext(err, "parse response")
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return errors.New(resp.Status)
	}
	return nil
}
