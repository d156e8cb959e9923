package public

import (
	"errors"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var reservationCreateErrorRules = []mappedHandlerError{
	{target: service.ErrReservationTimeInvalid, code: response.CodeBadRequest, msg: "预约时间格式无效"},
	{target: service.ErrTableNotFound, code: response.CodeBadRequest, msg: "桌台不存在"},
	{target: service.ErrTableUnavailable, code: response.CodeBadRequest, msg: "桌台在该时段不可用"},
	{target: service.ErrReservationSlotTaken, code: response.CodeBadRequest, msg: "该时段已被预约"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderEmpty, code: response.CodeBadRequest, msg: "订单明细不能为空"},
	{target: service.ErrMenuItemNotFound, code: response.CodeBadRequest, msg: "菜品不存在"},
	{target: service.ErrMenuItemUnavailable, code: response.CodeBadRequest, msg: "菜品已下架"},
}

var reviewCreateErrorRules = []mappedHandlerError{
	{target: service.ErrReviewRatingInvalid, code: response.CodeBadRequest, msg: "评分超出范围"},
	{target: service.ErrOrderNotFound, code: response.CodeBadRequest, msg: "订单不存在"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "订单状态不允许评价"},
	{target: service.ErrReviewExists, code: response.CodeBadRequest, msg: "该订单已评价"},
}

var couponRedeemErrorRules = []mappedHandlerError{
	{target: service.ErrPointInvalidAmount, code: response.CodeBadRequest, msg: "积分数量无效"},
	{target: service.ErrPointInsufficient, code: response.CodeBadRequest, msg: "可用积分不足"},
}
