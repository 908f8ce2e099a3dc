package workflows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LENAX/orchestration-engine/pkg/core/engine"
	"github.com/LENAX/orchestration-engine/pkg/core/task"
	"github.com/LENAX/orchestration-engine/pkg/core/workflow"
)

// Templates 预置Workflow模板（对外导出）
// 封装常见编排拓扑的构建逻辑，业务逻辑由调用方以JobFunc注入
type Templates struct {
	engine *engine.Engine
}

// NewTemplates 创建模板构建器（对外导出）
func NewTemplates(eng *engine.Engine) *Templates {
	return &Templates{engine: eng}
}

// DiscoveryStages 发现流水线各阶段的业务函数（对外导出）
// Intelligence与AIAnalysis仅在useAI时使用，可为nil
type DiscoveryStages struct {
	Discovery     task.JobFunc // 初始发现
	Validation    task.JobFunc // 数据校验与清洗
	Enrichment    task.JobFunc // 网站信息补全（按批次并行）
	AIAnalysis    task.JobFunc // AI分析（按批次并行）
	Consolidation task.JobFunc // 批次结果合并去重
	Storage       task.JobFunc // 数据库落库
	Reporting     task.JobFunc // 报告生成
	Intelligence  task.JobFunc // 市场情报
	Notification  task.JobFunc // 通知与收尾
}

// CreateComprehensiveDiscoveryWorkflow 构建完整发现流水线（对外导出）
// 拓扑：发现 -> 校验 -> N路并行补全 -> [N路并行AI分析] -> 合并
//       -> 落库 -> 报告 -> [市场情报] -> 通知
// 失败策略为continue：单批次失败不影响兄弟批次
func (t *Templates) CreateComprehensiveDiscoveryWorkflow(ctx context.Context, industryType, region string, useAI bool, parallelEnrichment int, stages DiscoveryStages) (string, error) {
	if parallelEnrichment <= 0 {
		parallelEnrichment = 5
	}

	workflowID := t.engine.CreateWorkflow(ctx,
		fmt.Sprintf("Comprehensive Discovery - %s", industryType),
		fmt.Sprintf("Full discovery pipeline for %s in %s", industryType, region),
		parallelEnrichment,
		workflow.FailureStrategyContinue,
		map[string]interface{}{
			"industry_type": industryType,
			"region":        region,
			"use_ai":        useAI,
			"created_by":    "workflow_template",
		})

	// 阶段1：初始发现
	discoveryID, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:     "Initial Discovery",
		Function: stages.Discovery,
		Args:     []interface{}{industryType, region},
		Priority: task.PriorityHigh,
		Timeout:  300,
		Metadata: map[string]interface{}{"stage": "discovery"},
	})
	if err != nil {
		return "", err
	}

	// 阶段2：数据校验与清洗
	validationID, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:         "Data Validation",
		Function:     stages.Validation,
		Dependencies: []string{discoveryID},
		Priority:     task.PriorityHigh,
		Metadata:     map[string]interface{}{"stage": "validation"},
	})
	if err != nil {
		return "", err
	}

	// 阶段3：并行网站信息补全
	enrichmentIDs := make([]string, 0, parallelEnrichment)
	for i := 0; i < parallelEnrichment; i++ {
		id, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
			Name:         fmt.Sprintf("Website Enrichment %d", i+1),
			Function:     stages.Enrichment,
			Args:         []interface{}{i, parallelEnrichment},
			Dependencies: []string{validationID},
			Priority:     task.PriorityNormal,
			Timeout:      600,
			Metadata:     map[string]interface{}{"stage": "enrichment", "batch": i},
		})
		if err != nil {
			return "", err
		}
		enrichmentIDs = append(enrichmentIDs, id)
	}

	// 阶段4：AI分析（可选）
	var aiIDs []string
	if useAI {
		for i := 0; i < parallelEnrichment; i++ {
			id, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
				Name:         fmt.Sprintf("AI Analysis %d", i+1),
				Function:     stages.AIAnalysis,
				Args:         []interface{}{industryType, i, parallelEnrichment},
				Dependencies: enrichmentIDs,
				Priority:     task.PriorityNormal,
				Timeout:      1800,
				Metadata:     map[string]interface{}{"stage": "ai_analysis", "batch": i},
			})
			if err != nil {
				return "", err
			}
			aiIDs = append(aiIDs, id)
		}
	}

	// 阶段5：批次结果合并
	consolidationDeps := enrichmentIDs
	if len(aiIDs) > 0 {
		consolidationDeps = aiIDs
	}
	consolidationID, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:         "Data Consolidation",
		Function:     stages.Consolidation,
		Dependencies: consolidationDeps,
		Priority:     task.PriorityHigh,
		Metadata:     map[string]interface{}{"stage": "consolidation"},
	})
	if err != nil {
		return "", err
	}

	// 阶段6：数据库落库
	storageID, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:         "Database Storage",
		Function:     stages.Storage,
		Args:         []interface{}{industryType, region},
		Dependencies: []string{consolidationID},
		Priority:     task.PriorityHigh,
		Metadata:     map[string]interface{}{"stage": "storage"},
	})
	if err != nil {
		return "", err
	}

	// 阶段7：报告生成
	reportID, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:         "Report Generation",
		Function:     stages.Reporting,
		Args:         []interface{}{industryType, region},
		Dependencies: []string{storageID},
		Priority:     task.PriorityNormal,
		Metadata:     map[string]interface{}{"stage": "reporting"},
	})
	if err != nil {
		return "", err
	}

	// 阶段8：市场情报（可选）
	notificationDeps := []string{reportID}
	if useAI {
		intelligenceID, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
			Name:         "Market Intelligence",
			Function:     stages.Intelligence,
			Args:         []interface{}{industryType, region},
			Dependencies: []string{reportID},
			Priority:     task.PriorityNormal,
			Timeout:      900,
			Metadata:     map[string]interface{}{"stage": "intelligence"},
		})
		if err != nil {
			return "", err
		}
		notificationDeps = append(notificationDeps, intelligenceID)
	}

	// 阶段9：通知与收尾
	if _, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:         "Notification and Cleanup",
		Function:     stages.Notification,
		Args:         []interface{}{workflowID},
		Dependencies: notificationDeps,
		Priority:     task.PriorityLow,
		Metadata:     map[string]interface{}{"stage": "notification"},
	}); err != nil {
		return "", err
	}

	log.Printf("✅ 已构建发现流水线Workflow: %s", workflowID)
	return workflowID, nil
}

// CreateMonitoringWorkflow 构建监控Workflow（对外导出）
// 单Task轮询目标Workflow状态并记录进度，目标进入终态后结束
func (t *Templates) CreateMonitoringWorkflow(ctx context.Context, targetWorkflowID string, checkInterval time.Duration) (string, error) {
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}

	workflowID := t.engine.CreateWorkflow(ctx,
		fmt.Sprintf("Monitor Workflow %s", targetWorkflowID),
		fmt.Sprintf("Real-time monitoring for workflow %s", targetWorkflowID),
		1,
		workflow.FailureStrategyStop,
		map[string]interface{}{
			"target_workflow": targetWorkflowID,
			"monitoring":      true,
		})

	eng := t.engine
	monitor := func(tc *task.TaskContext) (interface{}, error) {
		for {
			status, err := eng.GetWorkflowStatus(targetWorkflowID)
			if err != nil {
				return nil, err
			}
			switch status.Status {
			case workflow.WorkflowStatusCompleted, workflow.WorkflowStatusFailed, workflow.WorkflowStatusCancelled:
				log.Printf("🔍 [监控] 目标Workflow %s 已结束: %s", targetWorkflowID, status.Status)
				return map[string]interface{}{
					"monitoring_completed": true,
					"final_status":         status.Status,
				}, nil
			}
			if status.TotalTasks > 0 {
				progress := float64(status.CompletedTasks) / float64(status.TotalTasks) * 100
				log.Printf("🔍 [监控] Workflow %s 进度: %.1f%% (%d/%d)",
					targetWorkflowID, progress, status.CompletedTasks, status.TotalTasks)
			}
			select {
			case <-time.After(checkInterval):
			case <-tc.Done():
				return nil, tc.Err()
			}
		}
	}

	if _, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
		Name:     "Continuous Monitor",
		Function: monitor,
		Args:     []interface{}{targetWorkflowID, checkInterval},
		Priority: task.PriorityLow,
		Metadata: map[string]interface{}{"stage": "monitoring"},
	}); err != nil {
		return "", err
	}
	return workflowID, nil
}

// PipelineStage 数据管道的一个阶段定义（对外导出）
type PipelineStage struct {
	Name     string
	Function task.JobFunc
}

// CreateDataPipelineWorkflow 构建ETL数据管道Workflow（对外导出）
// 拓扑：所有Extract并行 -> 所有Transform并行 -> 所有Load并行
func (t *Templates) CreateDataPipelineWorkflow(ctx context.Context, sources, transformations, destinations []PipelineStage) (string, error) {
	workflowID := t.engine.CreateWorkflow(ctx,
		"Data Pipeline",
		"Extract, Transform, Load data pipeline",
		3,
		workflow.FailureStrategyStop,
		map[string]interface{}{
			"pipeline":        true,
			"sources":         len(sources),
			"transformations": len(transformations),
			"destinations":    len(destinations),
		})

	extractIDs := make([]string, 0, len(sources))
	for _, src := range sources {
		id, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
			Name:     fmt.Sprintf("Extract from %s", src.Name),
			Function: src.Function,
			Priority: task.PriorityHigh,
			Metadata: map[string]interface{}{"stage": "extract", "source": src.Name},
		})
		if err != nil {
			return "", err
		}
		extractIDs = append(extractIDs, id)
	}

	transformIDs := make([]string, 0, len(transformations))
	for _, tr := range transformations {
		id, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
			Name:         fmt.Sprintf("Transform %s", tr.Name),
			Function:     tr.Function,
			Dependencies: extractIDs,
			Priority:     task.PriorityNormal,
			Metadata:     map[string]interface{}{"stage": "transform", "transformation": tr.Name},
		})
		if err != nil {
			return "", err
		}
		transformIDs = append(transformIDs, id)
	}

	for _, dst := range destinations {
		if _, err := t.engine.AddTask(ctx, workflowID, engine.TaskSpec{
			Name:         fmt.Sprintf("Load to %s", dst.Name),
			Function:     dst.Function,
			Dependencies: transformIDs,
			Priority:     task.PriorityHigh,
			Metadata:     map[string]interface{}{"stage": "load", "destination": dst.Name},
		}); err != nil {
			return "", err
		}
	}
	return workflowID, nil
}
