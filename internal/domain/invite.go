package domain

import (
	"net/url"
	"regexp"
)

// Invite links look like <origin>/room/<roomId>. The id alphabet is the
// nanoid character set, which room id generation sticks to.
var (
	invitePathRe = regexp.MustCompile(`^/room/(?P<id>[A-Za-z0-9_-]+)$`)
	roomIDRe     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ExtractRoomID accepts either a bare room id or a full invite URL and
// returns the id. The URL host is irrelevant, only the path shape is
// checked. Anything unparseable yields ErrInvalidRoomRef.
func ExtractRoomID(idOrLink string) (RoomID, error) {
	if u, err := url.Parse(idOrLink); err == nil && u.Scheme != "" && u.Host != "" {
		if m := invitePathRe.FindStringSubmatch(u.Path); m != nil {
			return RoomID(m[1]), nil
		}
		return "", ErrInvalidRoomRef
	}
	if roomIDRe.MatchString(idOrLink) {
		return RoomID(idOrLink), nil
	}
	return "", ErrInvalidRoomRef
}
