/*
 * @module api/controllers/cleaning_controller
 * @description 数据清洗控制器，提供清洗运行触发、运行记录查询和定时清洗任务管理接口
 * @architecture 分层架构 - 控制器层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow HTTP请求 -> 参数验证 -> 服务调用 -> 响应返回
 * @rules 清洗错误按类别映射为4xx，运行失败时仍返回运行记录
 * @dependencies service/cleaning, service/cleansing, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"

	"datahub-cleanser/service"
	"datahub-cleanser/service/cleaning"
	"datahub-cleanser/service/cleansing"
	"datahub-cleanser/service/models"
)

// CleaningController 数据清洗控制器
type CleaningController struct {
	cleaningService *cleaning.Service
}

// NewCleaningController 创建数据清洗控制器
func NewCleaningController() *CleaningController {
	return NewCleaningControllerWithService(service.GlobalCleaningService)
}

// NewCleaningControllerWithService 以指定服务创建控制器
func NewCleaningControllerWithService(svc *cleaning.Service) *CleaningController {
	return &CleaningController{cleaningService: svc}
}

// RunResult 清洗运行结果
type RunResult struct {
	Run    *models.CleaningRun `json:"run"`
	Result *cleansing.Result   `json:"result,omitempty"`
}

// CreateRun 立即执行一次清洗
// @Summary 执行清洗
// @Description 按配置文件或内联配置立即执行一次清洗运行，source/destination 覆盖配置中的路径
// @Description
// @Description **运行状态:** running → success/failed
// @Description
// @Description **错误类别:** ConfigurationError, UnparseableDateError, DegenerateColumnError, MalformedRowError
// @Tags 数据清洗
// @Accept json
// @Produce json
// @Param request body models.CleaningRequest true "清洗请求"
// @Success 200 {object} APIResponse{data=RunResult} "执行成功"
// @Failure 400 {object} APIResponse "配置错误"
// @Failure 409 {object} APIResponse "导出目标正被占用"
// @Failure 422 {object} APIResponse{data=RunResult} "清洗失败"
// @Failure 429 {object} APIResponse "提交过于频繁"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /cleaning/runs [post]
func (c *CleaningController) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req models.CleaningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}
	req.TriggerType = models.TriggerManual

	outcome, err := c.cleaningService.Run(r.Context(), &req)
	if err != nil {
		if errors.Is(err, cleaning.ErrRunInProgress) {
			writeJSON(w, r, ErrorResponse(http.StatusConflict, "清洗运行冲突", err))
			return
		}
		if outcome == nil {
			writeJSON(w, r, errorFor(err))
			return
		}

		resp := errorFor(err)
		resp.Data = RunResult{Run: outcome.Run, Result: outcome.Result}
		writeJSON(w, r, resp)
		return
	}

	writeJSON(w, r, SuccessResponse("清洗完成", RunResult{Run: outcome.Run, Result: outcome.Result}))
}

// errorFor 按错误类别选择响应码
func errorFor(err error) *APIResponse {
	switch cleansing.ErrorKind(err) {
	case cleansing.KindConfiguration:
		return BadRequestResponse("清洗配置错误", err)
	case cleansing.KindUnparseableDate, cleansing.KindDegenerateColumn, cleansing.KindMalformedRow:
		return ErrorResponse(http.StatusUnprocessableEntity, "数据清洗失败", err)
	default:
		return InternalErrorResponse("清洗运行失败", err)
	}
}

// ListRuns 查询运行记录
// @Summary 运行记录列表
// @Description 分页查询清洗运行记录，按创建时间倒序
// @Tags 数据清洗
// @Produce json
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Param status query string false "运行状态" Enums(running, success, failed)
// @Param job_id query string false "定时任务ID"
// @Success 200 {object} PaginatedResponse{data=[]models.CleaningRun} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /cleaning/runs [get]
func (c *CleaningController) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := cleaning.ListRunsRequest{
		Page:   cast.ToInt(query.Get("page")),
		Size:   cast.ToInt(query.Get("size")),
		Status: query.Get("status"),
		JobID:  query.Get("job_id"),
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 || req.Size > 100 {
		req.Size = 10
	}

	runs, total, err := c.cleaningService.ListRuns(r.Context(), req)
	if err != nil {
		writeJSON(w, r, InternalErrorResponse("查询运行记录失败", err))
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "查询成功",
		Data:   runs,
		Total:  total,
		Page:   req.Page,
		Size:   req.Size,
	})
}

// GetRun 查询运行详情
// @Summary 运行详情
// @Description 根据ID查询单次清洗运行记录，包含各阶段统计
// @Tags 数据清洗
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.CleaningRun} "查询成功"
// @Failure 404 {object} APIResponse "运行记录不存在"
// @Router /cleaning/runs/{id} [get]
func (c *CleaningController) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := c.cleaningService.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, cleaning.ErrNotFound) {
			writeJSON(w, r, NotFoundResponse("运行记录不存在", nil))
			return
		}
		writeJSON(w, r, InternalErrorResponse("查询运行记录失败", err))
		return
	}

	writeJSON(w, r, SuccessResponse("查询成功", run))
}

// CreateJob 创建定时清洗任务
// @Summary 创建定时清洗任务
// @Description 创建按Cron表达式定时执行的清洗任务，表达式为6位(含秒)
// @Tags 数据清洗
// @Accept json
// @Produce json
// @Param request body models.CreateCleaningJobRequest true "任务信息"
// @Success 200 {object} APIResponse{data=models.CleaningJob} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 409 {object} APIResponse "任务名称已存在"
// @Router /cleaning/jobs [post]
func (c *CleaningController) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCleaningJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	job, err := c.cleaningService.CreateJob(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, cleaning.ErrDuplicateJobName):
			writeJSON(w, r, ErrorResponse(http.StatusConflict, "创建任务失败", err))
		case cleansing.ErrorKind(err) == cleansing.KindConfiguration:
			writeJSON(w, r, BadRequestResponse("任务配置错误", err))
		default:
			writeJSON(w, r, InternalErrorResponse("创建任务失败", err))
		}
		return
	}

	writeJSON(w, r, SuccessResponse("创建成功", job))
}

// ListJobs 查询定时清洗任务
// @Summary 定时清洗任务列表
// @Tags 数据清洗
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.CleaningJob} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /cleaning/jobs [get]
func (c *CleaningController) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := c.cleaningService.ListJobs(r.Context())
	if err != nil {
		writeJSON(w, r, InternalErrorResponse("查询任务失败", err))
		return
	}

	writeJSON(w, r, SuccessResponse("查询成功", jobs))
}

// DeleteJob 删除定时清洗任务
// @Summary 删除定时清洗任务
// @Description 删除任务并移除调度，已有运行记录保留
// @Tags 数据清洗
// @Produce json
// @Param id path string true "任务ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "任务不存在"
// @Router /cleaning/jobs/{id} [delete]
func (c *CleaningController) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.cleaningService.DeleteJob(r.Context(), id); err != nil {
		if errors.Is(err, cleaning.ErrNotFound) {
			writeJSON(w, r, NotFoundResponse("任务不存在", nil))
			return
		}
		writeJSON(w, r, InternalErrorResponse("删除任务失败", err))
		return
	}

	writeJSON(w, r, SuccessResponse("删除成功", nil))
}
