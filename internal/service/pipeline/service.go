package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/service/listing"
	"github.com/LouYuanbo1/productreviews/param"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileSink 必需的持久化,返回写入路径
type FileSink interface {
	Save(records []model.ProductRecord, filename string) (string, error)
}

// RecordSink 可选的附加存储,失败不会影响文件输出
type RecordSink interface {
	Name() string
	Save(ctx context.Context, records []model.ProductRecord) (int, error)
}

// SinkResult 一个附加存储的写入结果
type SinkResult struct {
	Name    string
	Written int
	Err     error
}

// Report 一次抓取任务的汇总
type Report struct {
	RunID    string
	Query    string
	Path     string
	Records  []model.ProductRecord
	Skipped  []listing.ItemOutcome
	Sinks    []SinkResult
	Duration time.Duration
}

type Service interface {
	Run(ctx context.Context, p param.Scrape) (*Report, error)
}

type Option func(*service)

// WithSink 追加附加存储,按添加顺序依次写入
func WithSink(sink RecordSink) Option {
	return func(s *service) { s.sinks = append(s.sinks, sink) }
}

type service struct {
	listing listing.Service
	file    FileSink
	sinks   []RecordSink
	logger  *zap.Logger
}

func InitService(listingService listing.Service, file FileSink, logger *zap.Logger, opts ...Option) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		listing: listingService,
		file:    file,
		logger:  logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Run(ctx context.Context, p param.Scrape) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("参数错误: %w", err)
	}
	start := time.Now()
	runID := uuid.New().String()
	logger := s.logger.With(zap.String("run_id", runID))
	logger.Info("开始抓取", zap.String("query", p.Query), zap.Int("max_products", p.MaxProducts))

	result, err := s.listing.Extract(ctx, p.Query, p.MaxProducts, p.ReviewCount)
	if err != nil {
		return nil, err
	}
	records := result.Records()

	path, err := s.file.Save(records, p.Filename)
	if err != nil {
		return nil, fmt.Errorf("保存结果失败: %w", err)
	}

	report := &Report{
		RunID:   runID,
		Query:   p.Query,
		Path:    path,
		Records: records,
		Skipped: result.Skipped(),
	}
	for _, sink := range s.sinks {
		n, err := sink.Save(ctx, records)
		if err != nil {
			logger.Warn("附加存储写入失败", zap.String("sink", sink.Name()), zap.Error(err))
		}
		report.Sinks = append(report.Sinks, SinkResult{Name: sink.Name(), Written: n, Err: err})
	}
	report.Duration = time.Since(start)

	logger.Info("抓取完成",
		zap.String("query", p.Query),
		zap.Int("records", len(records)),
		zap.Int("skipped", len(report.Skipped)),
		zap.String("path", path),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
