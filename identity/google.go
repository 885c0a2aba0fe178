// ABOUTME: Resolves the operating user's Google account address
// ABOUTME: Asks Gmail for the profile and falls back to the primary calendar id
package identity

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GoogleProfile looks up the signed-in account's email address.
type GoogleProfile struct {
	opts []option.ClientOption
}

// NewGoogleProfile authenticates with token using the default OAuth config.
func NewGoogleProfile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}
	client := NewOAuthConfig().Client(ctx, token)
	return NewGoogleProfileWithOptions(option.WithHTTPClient(client)), nil
}

// NewGoogleProfileWithOptions builds a profile source from raw client options.
func NewGoogleProfileWithOptions(opts ...option.ClientOption) *GoogleProfile {
	return &GoogleProfile{opts: opts}
}

// Email returns the account address. The Gmail profile is authoritative; the
// primary calendar id is used when Gmail is unavailable.
func (g *GoogleProfile) Email(ctx context.Context) (string, error) {
	email, gmailErr := g.gmailAddress(ctx)
	if gmailErr == nil && email != "" {
		return email, nil
	}

	email, calErr := g.calendarAddress(ctx)
	if calErr == nil && email != "" {
		return email, nil
	}

	return "", fmt.Errorf("failed to resolve account email: gmail: %v, calendar: %v", gmailErr, calErr)
}

func (g *GoogleProfile) gmailAddress(ctx context.Context) (string, error) {
	service, err := gmail.NewService(ctx, g.opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Gmail service: %w", err)
	}

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

func (g *GoogleProfile) calendarAddress(ctx context.Context) (string, error) {
	service, err := calendar.NewService(ctx, g.opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Calendar service: %w", err)
	}

	entry, err := service.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get primary calendar: %w", err)
	}
	return entry.Id, nil
}
