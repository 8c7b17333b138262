package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// Farcaster client defaults.
const (
	defaultBaseURL      = "https://api.neynar.com"
	defaultCastLimit    = 50
	defaultFetchTimeout = 15 * time.Second
)

// FarcasterClient implements Fetcher against a Neynar-style Farcaster
// data API: one call for the user profile bundle, one for recent casts.
type FarcasterClient struct {
	hc        *http.Client
	baseURL   string
	apiKey    string
	castLimit int
}

// FarcasterOption applies a configuration option to the client.
type FarcasterOption func(*FarcasterClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) FarcasterOption {
	return func(c *FarcasterClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client. Test hook.
func WithHTTPClient(hc *http.Client) FarcasterOption {
	return func(c *FarcasterClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithCastLimit bounds how many recent casts one snapshot includes.
func WithCastLimit(n int) FarcasterOption {
	return func(c *FarcasterClient) {
		if n > 0 {
			c.castLimit = n
		}
	}
}

// WithFetchTimeout bounds one upstream round trip.
func WithFetchTimeout(d time.Duration) FarcasterOption {
	return func(c *FarcasterClient) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

// NewFarcasterClient creates a client authenticated with apiKey.
func NewFarcasterClient(apiKey string, opts ...FarcasterOption) *FarcasterClient {
	c := &FarcasterClient{
		hc:        &http.Client{Timeout: defaultFetchTimeout},
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		castLimit: defaultCastLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upstream response shapes, trimmed to the fields the calculators read.

type userBulkResponse struct {
	Users []struct {
		FID            uint64 `json:"fid"`
		Username       string `json:"username"`
		DisplayName    string `json:"display_name"`
		PfpURL         string `json:"pfp_url"`
		FollowerCount  int    `json:"follower_count"`
		FollowingCount int    `json:"following_count"`
		PowerBadge     bool   `json:"power_badge"`
		CreatedAt      string `json:"created_at"`
		VerifiedAddrs  struct {
			EthAddresses []string `json:"eth_addresses"`
			SolAddresses []string `json:"sol_addresses"`
		} `json:"verified_addresses"`
		Experimental struct {
			NeynarUserScore float64 `json:"neynar_user_score"`
		} `json:"experimental"`
		Balance struct {
			TotalUSD float64 `json:"total_usd"`
			Chains   int     `json:"chains"`
		} `json:"balance"`
		RelevantFollowers struct {
			QualityScore float64 `json:"quality_score"`
		} `json:"relevant_followers"`
	} `json:"users"`
}

type castFeedResponse struct {
	Casts []struct {
		Timestamp  string `json:"timestamp"`
		ParentHash string `json:"parent_hash"`
		Reactions  struct {
			LikesCount   int `json:"likes_count"`
			RecastsCount int `json:"recasts_count"`
		} `json:"reactions"`
		Replies struct {
			Count int `json:"count"`
		} `json:"replies"`
		MentionedProfiles []struct {
			FID uint64 `json:"fid"`
		} `json:"mentioned_profiles"`
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
		Embeds []struct {
			URL string `json:"url"`
		} `json:"embeds"`
		ThreadDepth int `json:"thread_depth"`
	} `json:"casts"`
}

// FetchRawMetrics assembles a snapshot from the profile and cast feed
// endpoints.
func (c *FarcasterClient) FetchRawMetrics(ctx context.Context, fid types.FID) (model.RawMetrics, error) {
	start := time.Now()
	defer func() {
		metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	var users userBulkResponse
	userURL := fmt.Sprintf("%s/v2/farcaster/user/bulk?fids=%d", c.baseURL, fid)
	if err := c.getJSON(ctx, userURL, &users); err != nil {
		metrics.RecordFetchError()
		return model.RawMetrics{}, err
	}
	if len(users.Users) == 0 || types.FID(users.Users[0].FID) != fid {
		return model.RawMetrics{}, fmt.Errorf("%w: fid %d", ErrNotFound, fid)
	}
	u := users.Users[0]

	var feed castFeedResponse
	feedURL := fmt.Sprintf("%s/v2/farcaster/feed/user/casts?fid=%d&limit=%d", c.baseURL, fid, c.castLimit)
	if err := c.getJSON(ctx, feedURL, &feed); err != nil {
		metrics.RecordFetchError()
		return model.RawMetrics{}, err
	}

	casts := make([]model.Cast, 0, len(feed.Casts))
	totalInteractions := 0
	interactors := make(map[uint64]struct{})
	for _, fc := range feed.Casts {
		ts, _ := time.Parse(time.RFC3339, fc.Timestamp)
		cast := model.Cast{
			Timestamp:   ts,
			Likes:       fc.Reactions.LikesCount,
			Recasts:     fc.Reactions.RecastsCount,
			Replies:     fc.Replies.Count,
			Mentions:    len(fc.MentionedProfiles),
			ChannelID:   fc.Channel.ID,
			IsReply:     fc.ParentHash != "",
			EmbedCount:  len(fc.Embeds),
			ThreadDepth: fc.ThreadDepth,
		}
		casts = append(casts, cast)
		totalInteractions += cast.Likes + cast.Recasts + cast.Replies
		for _, p := range fc.MentionedProfiles {
			interactors[p.FID] = struct{}{}
		}
	}

	createdAt, _ := time.Parse(time.RFC3339, u.CreatedAt)

	var followRatio float64
	if u.FollowingCount > 0 {
		followRatio = float64(u.FollowerCount) / float64(u.FollowingCount)
	}

	return model.RawMetrics{
		FID: fid,
		Profile: model.Profile{
			Username:          u.Username,
			DisplayName:       u.DisplayName,
			PfpURL:            u.PfpURL,
			FollowerCount:     u.FollowerCount,
			FollowingCount:    u.FollowingCount,
			PowerBadge:        u.PowerBadge,
			QualitySignal:     u.Experimental.NeynarUserScore,
			VerificationCount: len(u.VerifiedAddrs.EthAddresses) + len(u.VerifiedAddrs.SolAddresses),
			AccountCreatedAt:  createdAt,
		},
		Casts: casts,
		Network: model.NetworkStats{
			RelevantFollowerQuality: u.RelevantFollowers.QualityScore,
			TotalInteractions:       totalInteractions,
			UniqueInteractors:       len(interactors),
			FollowRatio:             followRatio,
			ChannelsLed:             0, // not exposed by this provider
		},
		Financial: model.FinancialStats{
			TokenBalanceUSD: u.Balance.TotalUSD,
			ChainCount:      u.Balance.Chains,
		},
		FetchedAt: time.Now().UTC(),
	}, nil
}

// getJSON performs one authenticated GET and decodes the body into out.
func (c *FarcasterClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode >= 300:
		return fmt.Errorf("%w: upstream status %s", ErrUnavailable, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrUnavailable, err)
	}
	return nil
}
