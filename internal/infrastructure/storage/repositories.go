package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"blogpilot/internal/domain"
	"blogpilot/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RuleRepository reads automation rules from Postgres.
type RuleRepository struct {
	db *sql.DB
}

var _ ports.RuleRepository = (*RuleRepository)(nil)

// NewRuleRepository wires a sql.DB implementation.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// GetRule loads one rule by id.
func (r *RuleRepository) GetRule(ctx context.Context, id int64) (domain.AutomationRule, error) {
	query, args, err := psql.
		Select("id", "blog_id", "name", "categories", "auto_publish", "auto_social_post",
			"auto_approve_topics", "daily_quota", "active", "created_at").
		From("automation_rules").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.AutomationRule{}, fmt.Errorf("build rule query: %w", err)
	}

	var rule domain.AutomationRule
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&rule.ID, &rule.BlogID, &rule.Name, pq.Array(&rule.Categories),
		&rule.AutoPublish, &rule.AutoSocialPost, &rule.AutoApproveTopics,
		&rule.DailyQuota, &rule.Active, &rule.CreatedAt,
	)
	if err != nil {
		return domain.AutomationRule{}, fmt.Errorf("load rule %d: %w", id, err)
	}
	return rule, nil
}

// ListActiveRules returns every active rule.
func (r *RuleRepository) ListActiveRules(ctx context.Context) ([]domain.AutomationRule, error) {
	query, args, err := psql.
		Select("id", "blog_id", "name", "categories", "auto_publish", "auto_social_post",
			"auto_approve_topics", "daily_quota", "active", "created_at").
		From("automation_rules").
		Where(sq.Eq{"active": true}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rules query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.AutomationRule
	for rows.Next() {
		var rule domain.AutomationRule
		if err := rows.Scan(
			&rule.ID, &rule.BlogID, &rule.Name, pq.Array(&rule.Categories),
			&rule.AutoPublish, &rule.AutoSocialPost, &rule.AutoApproveTopics,
			&rule.DailyQuota, &rule.Active, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return rules, nil
}

// TopicRepository stores candidate subjects.
type TopicRepository struct {
	db *sql.DB
}

var _ ports.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository wires a sql.DB implementation.
func NewTopicRepository(db *sql.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func eligibleWhere(blogID string, categories []string) sq.And {
	where := sq.And{
		sq.Eq{"blog_id": blogID},
		sq.Eq{"status": string(domain.TopicApproved)},
		sq.Eq{"used": false},
	}
	if len(categories) > 0 {
		where = append(where, sq.Eq{"category": categories})
	}
	return where
}

// CountEligible counts approved, unused, category-matching topics.
func (r *TopicRepository) CountEligible(ctx context.Context, blogID string, categories []string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("topics").
		Where(eligibleWhere(blogID, categories)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count eligible topics: %w", err)
	}
	return count, nil
}

// ListEligible returns eligible topics ordered by priority descending, then
// creation time ascending, so the oldest highest-priority topic wins ties.
func (r *TopicRepository) ListEligible(ctx context.Context, blogID string, categories []string, limit int) ([]domain.Topic, error) {
	query, args, err := psql.
		Select("id", "blog_id", "title", "category", "priority", "status", "used", "used_at", "created_at").
		From("topics").
		Where(eligibleWhere(blogID, categories)).
		OrderBy("priority DESC", "created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build eligible query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var topic domain.Topic
		if err := rows.Scan(
			&topic.ID, &topic.BlogID, &topic.Title, &topic.Category, &topic.Priority,
			&topic.Status, &topic.Used, &topic.UsedAt, &topic.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return topics, nil
}

// Claim performs the atomic approved→used reservation in a single conditional
// update. Exactly one caller can win a given topic; everyone else sees zero
// affected rows.
func (r *TopicRepository) Claim(ctx context.Context, topicID int64, at time.Time) (bool, error) {
	query, args, err := psql.
		Update("topics").
		Set("status", string(domain.TopicUsed)).
		Set("used", true).
		Set("used_at", at).
		Where(sq.And{
			sq.Eq{"id": topicID},
			sq.Eq{"status": string(domain.TopicApproved)},
			sq.Eq{"used": false},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim topic %d: %w", topicID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim topic %d: %w", topicID, err)
	}
	return affected == 1, nil
}

// SaveTopic inserts a new topic and backfills its id.
func (r *TopicRepository) SaveTopic(ctx context.Context, topic *domain.Topic) error {
	query, args, err := psql.
		Insert("topics").
		Columns("blog_id", "title", "category", "priority", "status").
		Values(topic.BlogID, topic.Title, topic.Category, topic.Priority, string(topic.Status)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build topic insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&topic.ID, &topic.CreatedAt); err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

// SetStatus updates a topic's status.
func (r *TopicRepository) SetStatus(ctx context.Context, topicID int64, status domain.TopicStatus) error {
	query, args, err := psql.
		Update("topics").
		Set("status", string(status)).
		Where(sq.Eq{"id": topicID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set topic %d status: %w", topicID, err)
	}
	return nil
}

// ArticleRepository persists generated articles.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// SaveArticle inserts or updates an article depending on whether it has an id.
func (r *ArticleRepository) SaveArticle(ctx context.Context, article *domain.Article) error {
	if article.ID == 0 {
		query, args, err := psql.
			Insert("articles").
			Columns("blog_id", "topic_id", "author_id", "title", "body", "excerpt",
				"tags", "status", "featured_image_url", "image_urls").
			Values(article.BlogID, article.TopicID, article.AuthorID, article.Title,
				article.Body, article.Excerpt, pq.Array(article.Tags), string(article.Status),
				article.FeaturedImageURL, pq.Array(article.ImageURLs)).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build article insert: %w", err)
		}
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.CreatedAt); err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		return nil
	}

	query, args, err := psql.
		Update("articles").
		Set("title", article.Title).
		Set("body", article.Body).
		Set("excerpt", article.Excerpt).
		Set("tags", pq.Array(article.Tags)).
		Set("status", string(article.Status)).
		Set("author_id", article.AuthorID).
		Set("featured_image_url", article.FeaturedImageURL).
		Set("image_urls", pq.Array(article.ImageURLs)).
		Where(sq.Eq{"id": article.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build article update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update article %d: %w", article.ID, err)
	}
	return nil
}

// MarkPublished records the CMS post id and flips the article to published.
func (r *ArticleRepository) MarkPublished(ctx context.Context, articleID, postID int64, at time.Time) error {
	query, args, err := psql.
		Update("articles").
		Set("status", string(domain.ArticlePublished)).
		Set("wordpress_post_id", postID).
		Set("published_at", at).
		Where(sq.Eq{"id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build publish update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark article %d published: %w", articleID, err)
	}
	return nil
}

// CountPublishedSince returns per-author publication counts for a blog since
// the given instant.
func (r *ArticleRepository) CountPublishedSince(ctx context.Context, blogID string, since time.Time) (map[int64]int, error) {
	query, args, err := psql.
		Select("author_id", "COUNT(*)").
		From("articles").
		Where(sq.And{
			sq.Eq{"blog_id": blogID},
			sq.Eq{"status": string(domain.ArticlePublished)},
			sq.GtOrEq{"published_at": since},
		}).
		GroupBy("author_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query published counts: %w", err)
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var authorID int64
		var n int
		if err := rows.Scan(&authorID, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[authorID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return counts, nil
}

// MetricsRepository appends run metrics rows.
type MetricsRepository struct {
	db *sql.DB
}

var _ ports.MetricsRepository = (*MetricsRepository)(nil)

// NewMetricsRepository wires a sql.DB implementation.
func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// SaveMetrics appends one ContentMetrics row.
func (r *MetricsRepository) SaveMetrics(ctx context.Context, m domain.ContentMetrics) error {
	query, args, err := psql.
		Insert("content_metrics").
		Columns("rule_id", "workflow_id", "execution_ms", "steps_completed", "success", "error_summary").
		Values(m.RuleID, m.WorkflowID, m.ExecutionTime.Milliseconds(), m.StepsCompleted, m.Success, m.ErrorSummary).
		ToSql()
	if err != nil {
		return fmt.Errorf("build metrics insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return nil
}
