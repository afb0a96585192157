package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/classportal/core/collaboration"
)

type collaborationApi struct {
	auth *authenticator
	svc  *collaboration.Service
}

func registerCollaborationAPI(g *echo.Group, auth *authenticator, svc *collaboration.Service) {
	api := collaborationApi{auth: auth, svc: svc}

	gg := g.Group("/groups")
	gg.GET("", api.groups)
	gg.GET("/mine", api.myGroups)
	gg.POST("", api.createGroup)
	gg.GET("/:id", api.group)
	gg.PUT("/:id", api.updateGroup)
	gg.DELETE("/:id", api.deleteGroup)
	gg.POST("/:id/join", api.join)
	gg.POST("/:id/leave", api.leave)

	rg := g.Group("/reviews")
	rg.POST("", api.createReview)
	rg.GET("/mine", api.myReviews)
	rg.GET("/for/:uid", api.reviewsFor)
	rg.GET("/assignments/:aid", api.reviewsForAssignment, staffMiddleware(auth))
	rg.DELETE("/:id", api.deleteReview)
}

func (api *collaborationApi) groups(ctx echo.Context) error {
	var q listQuery
	q.Bind(ctx)
	if q.Subject != "" {
		return ctx.JSON(http.StatusOK, api.svc.GroupsBySubject(q.Subject))
	}
	return ctx.JSON(http.StatusOK, api.svc.Groups())
}

func (api *collaborationApi) myGroups(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.GroupsOf(usr.ID))
}

func (api *collaborationApi) createGroup(ctx echo.Context) error {
	var data collaboration.NewGroup
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.OwnerID = usr.ID

	grp, err := api.svc.CreateGroup(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *collaborationApi) group(ctx echo.Context) error {
	grp, err := api.svc.Group(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

// owned returns the group of the request if the context user owns it or is staff.
func (api *collaborationApi) owned(ctx echo.Context) (collaboration.StudyGroup, error) {
	grp, err := api.svc.Group(ctx.Param("id"))
	if err != nil {
		return collaboration.StudyGroup{}, err
	}
	if _, err := api.auth.selfOrStaff(ctx, grp.OwnerID); err != nil {
		return collaboration.StudyGroup{}, err
	}
	return grp, nil
}

func (api *collaborationApi) updateGroup(ctx echo.Context) error {
	grp, err := api.owned(ctx)
	if err != nil {
		return err
	}
	var data collaboration.UpdateGroup
	if err := bind(ctx, &data); err != nil {
		return err
	}
	grp, err = api.svc.UpdateGroup(ctx.Request().Context(), grp.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *collaborationApi) deleteGroup(ctx echo.Context) error {
	grp, err := api.owned(ctx)
	if err != nil {
		return err
	}
	ok, err := api.svc.DeleteGroup(ctx.Request().Context(), grp.ID)
	return deleted(ctx, ok, err)
}

func (api *collaborationApi) join(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	grp, err := api.svc.Join(ctx.Request().Context(), ctx.Param("id"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *collaborationApi) leave(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	grp, err := api.svc.Leave(ctx.Request().Context(), ctx.Param("id"), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

type ReviewsResponse struct {
	Reviews       []collaboration.PeerReview `json:"reviews"`
	AverageRating float64                    `json:"average_rating"`
}

func (api *collaborationApi) createReview(ctx echo.Context) error {
	var data collaboration.NewReview
	if err := bind(ctx, &data); err != nil {
		return err
	}
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	data.ReviewerID = usr.ID

	r, err := api.svc.AddReview(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *collaborationApi) myReviews(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.ReviewsBy(usr.ID))
}

func (api *collaborationApi) reviewsFor(ctx echo.Context) error {
	uid := ctx.Param("uid")
	if _, err := api.auth.selfOrStaff(ctx, uid); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ReviewsResponse{
		Reviews:       api.svc.ReviewsFor(uid),
		AverageRating: api.svc.AverageReviewRating(uid),
	})
}

func (api *collaborationApi) reviewsForAssignment(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.ReviewsForAssignment(ctx.Param("aid")))
}

func (api *collaborationApi) deleteReview(ctx echo.Context) error {
	r, err := api.svc.Review(ctx.Param("id"))
	if err != nil {
		return err
	}
	if _, err := api.auth.selfOrStaff(ctx, r.ReviewerID); err != nil {
		return err
	}
	ok, err := api.svc.DeleteReview(ctx.Request().Context(), r.ID)
	return deleted(ctx, ok, err)
}
