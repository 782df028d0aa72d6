package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrUnavailable 预测服务不可达或返回了无法解析的内容
// 调用方据此降级为公式健康得分，绝不当作致命错误
var ErrUnavailable = errors.New("failure predictor unavailable")

// Reading 发给预测服务的单条振动读数
type Reading struct {
	VibrationRMS float64 `json:"vibration_rms"`
	Timestamp    int64   `json:"timestamp,omitempty"`
}

type predictRequest struct {
	Readings []Reading `json:"readings"`
}

type classification struct {
	WillFailSoon       bool    `json:"will_fail_soon"`
	FailureProbability float64 `json:"failure_probability"`
	Confidence         float64 `json:"confidence"`
	ThresholdMinutes   float64 `json:"threshold_minutes"`
}

type regression struct {
	MinutesToFailure float64 `json:"minutes_to_failure"`
	HoursToFailure   float64 `json:"hours_to_failure"`
	Status           string  `json:"status"`
}

type predictResponse struct {
	Classification classification `json:"classification"`
	Regression     regression     `json:"regression"`
	ReadingsUsed   int            `json:"readings_used"`
}

// Client 远程故障预测服务客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建预测服务客户端
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// Predict 提交振动读数序列，返回故障预测
// 任何网络错误、非 2xx 状态或畸形响应都折叠为 ErrUnavailable
func (c *Client) Predict(ctx context.Context, readings []Reading) (*models.FailurePrediction, error) {
	if len(readings) == 0 {
		return nil, fmt.Errorf("no readings to predict on")
	}

	var result predictResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(predictRequest{Readings: readings}).
		SetResult(&result).
		Post("/predict")
	if err != nil {
		c.logger.Warn("Predictor request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.IsError() {
		c.logger.Warn("Predictor returned error status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	if err := validateResponse(&result); err != nil {
		c.logger.Warn("Predictor returned malformed response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &models.FailurePrediction{
		WillFailSoon:       result.Classification.WillFailSoon,
		FailureProbability: result.Classification.FailureProbability,
		Confidence:         result.Classification.Confidence,
		ThresholdMinutes:   result.Classification.ThresholdMinutes,
		MinutesToFailure:   result.Regression.MinutesToFailure,
		HoursToFailure:     result.Regression.HoursToFailure,
		Status:             result.Regression.Status,
		ReadingsUsed:       result.ReadingsUsed,
	}, nil
}

// validateResponse 检查响应字段是否在合法范围内
func validateResponse(r *predictResponse) error {
	if r.Classification.FailureProbability < 0 || r.Classification.FailureProbability > 1 {
		return fmt.Errorf("failure_probability %v out of range [0,1]", r.Classification.FailureProbability)
	}
	if r.ReadingsUsed < 0 {
		return fmt.Errorf("readings_used %d is negative", r.ReadingsUsed)
	}
	return nil
}
