package session

import (
	"regexp"
	"strings"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

var mobilePattern = regexp.MustCompile(`(?i)Mobile|Android|iPhone|iPad|iPod|BlackBerry|Windows Phone`)

// DetectDevice classifies the client device from its User-Agent. Tablets are
// checked first since their agents also match the mobile pattern; Android
// tablets omit the "Mobile" marker.
func DetectDevice(userAgent string) domain.DeviceType {
	if userAgent == "" {
		return domain.DeviceUnknown
	}
	if strings.Contains(userAgent, "iPad") {
		return domain.DeviceTablet
	}
	if strings.Contains(userAgent, "Android") && !strings.Contains(userAgent, "Mobile") {
		return domain.DeviceTablet
	}
	if mobilePattern.MatchString(userAgent) {
		return domain.DeviceMobile
	}
	return domain.DeviceDesktop
}
