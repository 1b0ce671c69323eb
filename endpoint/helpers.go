package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/middleware"
	"github.com/medcenter/appointment-api/util"
	"gorm.io/gorm"
)

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

// getActorOrRespond returns the verified actor identity set by the auth
// middleware. Handlers never read ambient identity beyond this.
func getActorOrRespond(c *gin.Context) (uint, string, bool) {
	actorID, actorType, ok := middleware.GetActor(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Authentication required",
			Err: fmt.Errorf("no verified actor in request context"),
		})
		return 0, "", false
	}
	return actorID, actorType, true
}
