package repository

import (
	"time"

	"alcyxob/material-approval/internal/domain"
)

func seedTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedTimePtr(s string) *time.Time {
	t := seedTime(s)
	return &t
}

// SeedMaterials returns the dataset a fresh or unreadable slot is reset to.
func SeedMaterials() []domain.Material {
	const img = "https://images.unsplash.com/"
	return []domain.Material{
		{
			ID:          1,
			Title:       "宣传海报设计稿",
			Description: "公司年度活动宣传海报",
			PreviewURL:  img + "photo-1573867639040-6dd25fa5f597?w=500&auto=format&fit=crop&q=60&ixlib=rb-4.0.3",
			OriginalURL: img + "photo-1573867639040-6dd25fa5f597?w=1200&auto=format&fit=crop&q=80&ixlib=rb-4.0.3",
			UploadDate:  seedTime("2023-10-15T10:30:00Z"),
			Uploader:    "张三",
			Status:      domain.StatusPending,
		},
		{
			ID:           2,
			Title:        "产品包装设计",
			Description:  "新产品包装设计方案",
			PreviewURL:   img + "photo-1626544827763-d516dce335e2?w=500&auto=format&fit=crop&q=60&ixlib=rb-4.0.3",
			OriginalURL:  img + "photo-1626544827763-d516dce335e2?w=1200&auto=format&fit=crop&q=80&ixlib=rb-4.0.3",
			UploadDate:   seedTime("2023-10-12T09:15:00Z"),
			Uploader:     "李四",
			Approver:     "王经理",
			Status:       domain.StatusApproved,
			ApprovalDate: seedTimePtr("2023-10-14T14:20:00Z"),
		},
		{
			ID:           3,
			Title:        "网站主页设计",
			Description:  "公司网站首页改版设计",
			PreviewURL:   img + "photo-1467232004584-a241de8bcf5d?w=500&auto=format&fit=crop&q=60&ixlib=rb-4.0.3",
			OriginalURL:  img + "photo-1467232004584-a241de8bcf5d?w=1200&auto=format&fit=crop&q=80&ixlib=rb-4.0.3",
			UploadDate:   seedTime("2023-10-10T16:45:00Z"),
			Uploader:     "王五",
			Approver:     "张经理",
			Status:       domain.StatusRejected,
			ApprovalDate: seedTimePtr("2023-10-11T11:30:00Z"),
		},
		{
			ID:           4,
			Title:        "社交媒体广告图",
			Description:  "微信推广广告设计",
			PreviewURL:   img + "photo-1611162616475-46b635cb6868?w=500&auto=format&fit=crop&q=60&ixlib=rb-4.0.3",
			OriginalURL:  img + "photo-1611162616475-46b635cb6868?w=1200&auto=format&fit=crop&q=80&ixlib=rb-4.0.3",
			UploadDate:   seedTime("2023-10-08T13:20:00Z"),
			Uploader:     "赵六",
			Approver:     "李总监",
			Status:       domain.StatusPublished,
			ApprovalDate: seedTimePtr("2023-10-09T10:15:00Z"),
		},
		{
			ID:          5,
			Title:       "产品展示图",
			Description: "新品发布展示图",
			PreviewURL:  img + "photo-1460925895917-afdab827c52f?w=500&auto=format&fit=crop&q=60&ixlib=rb-4.0.3",
			OriginalURL: img + "photo-1460925895917-afdab827c52f?w=1200&auto=format&fit=crop&q=80&ixlib=rb-4.0.3",
			UploadDate:  seedTime("2023-10-05T09:10:00Z"),
			Uploader:    "刘七",
			Status:      domain.StatusPending,
		},
	}
}
