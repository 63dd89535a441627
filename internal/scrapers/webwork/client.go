// client.go holds the authenticated session for one course, every page operation goes through it.

package webwork

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
	"webwork-assist/internal/components/assert"
	"webwork-assist/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_login        = "client.login"
	report_client_fetch        = "client.fetch"
	report_client_get_sets     = "client.get-sets"
	report_client_get_set_info = "client.get-set-info"
	report_client_get_problem  = "client.get-problem"
	report_client_submit       = "client.submit"
	report_client_preview      = "client.preview"
	report_client_get_grades   = "client.get-grades"
	report_client_course_info  = "client.course-info"
	report_client_hardcopy     = "client.hardcopy"
)

const submitTimeout = time.Second * 30

type Options struct {
	// CloudflareBypass wraps the transport so requests look like they come from a browser.
	CloudflareBypass bool
	// RateLimit is the number of requests allowed per second, zero means 2.
	RateLimit rate.Limit
}

// Client scrapes a single course as a single user.
type Client struct {
	Course   string
	Username string
	// ClassUrl is the course root, it doubles as the login endpoint.
	ClassUrl *url.URL

	password string
	http     *resty.Client
	tel      telemetry.API

	mutex    sync.Mutex
	loggedIn bool
}

func NewClient(baseUrl, course, username, password string, opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil("telemetry", tel)
	assert.NotEmptyStr("course", course)

	tel = telemetry.NewScopedAPI("webwork_scraper", tel)

	classUrl, err := url.Parse(strings.TrimRight(baseUrl, "/") + "/" + course)
	if err != nil {
		return nil, fmt.Errorf("parse class url: %w", err)
	}
	if !classUrl.IsAbs() {
		return nil, fmt.Errorf("class url %s is not absolute", classUrl)
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(classUrl.Hostname()))

	// 2 requests max per second by default
	// max burst >= 2 just means that no requests will be dropped
	limit := opts.RateLimit
	if limit == 0 {
		limit = 2
	}
	rateLimiter := rate.NewLimiter(limit, 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		Course:   course,
		Username: username,
		ClassUrl: classUrl,
		password: password,
		http:     httpClient,
		tel:      tel,
	}, nil
}

// LoggedIn reports whether a login has succeeded on this client.
func (c *Client) LoggedIn() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.loggedIn
}

// Login submits the credentials to the course page, a successful login is remembered and later
// calls return immediately. A transport failure is returned as an error, a rejected login as false.
func (c *Client) Login(ctx context.Context) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.loggedIn {
		return true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"user":    c.Username,
			"passwd":  c.password,
			".submit": "Continue",
		}).
		Post(c.ClassUrl.String())
	if err != nil {
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("login request: %w", err),
			c.Course,
			time.Since(start).String(),
		)
		return false, fmt.Errorf("webwork scraper: login %s: %w", c.Course, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("parse login response: %w", err),
			c.Course,
		)
		return false, fmt.Errorf("webwork scraper: login %s: %w", c.Course, err)
	}

	status := doc.Find("#loginstatus").First()
	if status.Length() == 0 || !strings.Contains(status.Text(), "Logged in as") {
		c.tel.ReportWarning(
			report_client_login,
			fmt.Errorf("could not find login marker in #loginstatus"),
			c.Course,
			c.Username,
		)
		return false, nil
	}

	c.loggedIn = true
	c.tel.ReportDebug(report_client_login, c.Course, c.Username, time.Since(start).String())
	return true, nil
}

// ensureLogin attempts a single login when there is no session yet.
func (c *Client) ensureLogin(ctx context.Context) error {
	ok, err := c.Login(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s as %s: %w", ErrLoginFailed, c.Course, c.Username, err)
	}
	if !ok {
		c.tel.ReportBroken(report_client_login, ErrLoginFailed, c.Course, c.Username)
		return fmt.Errorf("%w: %s as %s", ErrLoginFailed, c.Course, c.Username)
	}
	return nil
}

// courseUrl joins path segments onto the class url and sets effectiveUser to this client's user.
func (c *Client) courseUrl(segments ...string) string {
	u := c.ClassUrl.JoinPath(segments...)
	// a trailing slash is part of every page url
	u.Path += "/"
	query := url.Values{}
	query.Set("effectiveUser", c.Username)
	u.RawQuery = query.Encode()
	return u.String()
}

func setSlug(setName string) string {
	return strings.ReplaceAll(setName, " ", "_")
}

type page struct {
	doc *goquery.Document
	raw string
	url *url.URL
}

func (c *Client) fetch(ctx context.Context, reportId, endpoint string) (page, error) {
	c.tel.ReportDebug(reportId, endpoint)

	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("%s: fetch: %w", reportId, err),
			endpoint,
		)
		return page{}, err
	}
	return c.parsePage(reportId, endpoint, res)
}

func (c *Client) parsePage(reportId, endpoint string, res *resty.Response) (page, error) {
	if res.IsError() {
		c.tel.ReportWarning(reportId, fmt.Errorf("unexpected status: %s", res.Status()), endpoint)
	}

	body := res.Body()
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("%s: parse: %w", reportId, err),
			endpoint,
		)
		return page{}, err
	}

	pageUrl, err := url.Parse(endpoint)
	if err != nil {
		return page{}, err
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		pageUrl = res.RawResponse.Request.URL
	}

	return page{doc: doc, raw: string(body), url: pageUrl}, nil
}
