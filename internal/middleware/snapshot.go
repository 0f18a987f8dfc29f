package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventide/conreg-api/internal/eventconfig"
)

const contextSnapshotKey = "eventSnapshot"

// EventSnapshot attaches a fresh event snapshot to each request, pinned to
// the request's arrival time and authenticated account. Must run after
// OptionalJWT so the account id is known.
func EventSnapshot(event *eventconfig.Event, counts eventconfig.CountSource, access eventconfig.AccessSource, depts eventconfig.DepartmentSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := ""
		if claims, ok := ClaimsFrom(c); ok {
			accountID = claims.AccountID
		}
		snap := eventconfig.NewSnapshot(event, time.Now(), accountID, counts, access, depts)
		c.Set(contextSnapshotKey, snap)
		c.Next()
	}
}

// SnapshotFrom returns the request's event snapshot.
func SnapshotFrom(c *gin.Context) (*eventconfig.Snapshot, bool) {
	v, ok := c.Get(contextSnapshotKey)
	if !ok {
		return nil, false
	}
	snap, ok := v.(*eventconfig.Snapshot)
	return snap, ok
}
