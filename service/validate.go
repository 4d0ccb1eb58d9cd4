package service

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	minHostnameLength = 3
	// 与 contents.link 列宽一致
	maxLinkLength = 768
	maxPort       = 65535
)

// ValidateLink 判断链接是否为合法的 http/https 绝对地址，且主机名至少 3 个字符。
// 任何解析失败都返回 false，不会 panic。
func ValidateLink(raw string) bool {
	u, err := parseLink(NormalizeLink(raw))
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > maxPort {
			return false
		}
	}

	return len(u.Hostname()) >= minHostnameLength
}

// parseLink http/https 的 "http:host"、"https:/host"、"https:///host" 都按 "scheme://host" 解析，
// 与浏览器的 URL 解析一致
func parseLink(link string) (*url.URL, error) {
	scheme, rest, ok := strings.Cut(link, ":")
	if ok && (scheme == "http" || scheme == "https") {
		link = scheme + "://" + strings.TrimLeft(rest, "/\\")
	}
	return url.Parse(link)
}

// NormalizeLink 去除首尾空白并转小写，比较和入库前统一调用一次
func NormalizeLink(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
