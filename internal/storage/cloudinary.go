package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const cloudinaryAPI = "https://api.cloudinary.com/v1_1"

// uploadTransformation caps stored images at 1200x800 with automatic quality.
const uploadTransformation = "c_limit,h_800,q_auto,w_1200"

type CloudinaryOptions struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// Endpoint overrides the API root, e.g. for tests.
	Endpoint string
	Client   *http.Client
}

// CloudinaryStore talks to the Cloudinary upload API with signed requests.
type CloudinaryStore struct {
	opts CloudinaryOptions
	now  func() time.Time
}

func NewCloudinaryStore(opts CloudinaryOptions) *CloudinaryStore {
	if opts.Endpoint == "" {
		opts.Endpoint = cloudinaryAPI
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CloudinaryStore{opts: opts, now: time.Now}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	Result    string `json:"result"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *CloudinaryStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (Image, error) {
	if _, err := CheckImage(name, contentType); err != nil {
		return Image{}, err
	}
	params := map[string]string{
		"timestamp":      s.timestamp(),
		"transformation": uploadTransformation,
	}
	if s.opts.Folder != "" {
		params["folder"] = s.opts.Folder
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range s.signed(params) {
		if err := w.WriteField(k, v); err != nil {
			return Image{}, err
		}
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return Image{}, err
	}
	n, err := io.Copy(part, io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Image{}, err
	}
	if n > MaxImageBytes {
		return Image{}, errors.New("file too large")
	}
	if err := w.Close(); err != nil {
		return Image{}, err
	}

	var out cloudinaryResponse
	if err := s.post(ctx, "upload", w.FormDataContentType(), &body, &out); err != nil {
		return Image{}, err
	}
	u := out.SecureURL
	if u == "" {
		u = out.URL
	}
	if u == "" {
		return Image{}, errors.New("cloudinary returned no url")
	}
	return Image{URL: u, PublicID: out.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	form := url.Values{}
	for k, v := range s.signed(map[string]string{
		"public_id": QualifyPublicID(s.opts.Folder, publicID),
		"timestamp": s.timestamp(),
	}) {
		form.Set(k, v)
	}
	var out cloudinaryResponse
	if err := s.post(ctx, "destroy", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out); err != nil {
		return err
	}
	if out.Result != "ok" {
		return ErrNotFound
	}
	return nil
}

func (s *CloudinaryStore) post(ctx context.Context, action, contentType string, body io.Reader, out *cloudinaryResponse) error {
	endpoint := s.opts.Endpoint + "/" + s.opts.CloudName + "/image/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	res, err := s.opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary %s: %w", action, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cloudinary %s: status %d: %w", action, res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK || out.Error.Message != "" {
		return fmt.Errorf("cloudinary %s: status %d: %s", action, res.StatusCode, out.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) timestamp() string {
	return strconv.FormatInt(s.now().Unix(), 10)
}

// signed adds api_key and the SHA-1 signature over the sorted params.
func (s *CloudinaryStore) signed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = Signature(params, s.opts.APISecret)
	out["api_key"] = s.opts.APIKey
	return out
}

// Signature is Cloudinary's request signature: the params sorted by key,
// joined as k=v pairs with "&", followed by the API secret, SHA-1 hex.
func Signature(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
