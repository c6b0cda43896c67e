// file: internals/features/finance/vouchers/controller/voucher_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/vouchers/dto"
	"tahfidzku_backend/internals/features/finance/vouchers/model"
	"tahfidzku_backend/internals/features/finance/vouchers/service"
	helper "tahfidzku_backend/internals/helpers"
)

type VoucherController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewVoucherController(db *gorm.DB, log *zap.Logger) *VoucherController {
	return &VoucherController{DB: db, Log: log.Named("vouchers")}
}

// POST /vouchers
func (h *VoucherController) Create(c *fiber.Ctx) error {
	var req dto.CreateVoucherRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := req.CheckValue(); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "value harus > 0 dan FIXED dalam rupiah penuh")
	}

	m := req.ToModel()
	if err := h.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "Kode voucher sudah dipakai")
		}
		h.Log.Error("[VOUCHER] create gagal", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat voucher")
	}
	return helper.JsonCreated(c, "Voucher dibuat", dto.FromModel(m))
}

// GET /vouchers?active=true
func (h *VoucherController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	q := h.DB.WithContext(c.UserContext()).Model(&model.VoucherModel{})
	if v := strings.TrimSpace(c.Query("active")); v != "" {
		q = q.Where("voucher_active = ?", strings.EqualFold(v, "true"))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung voucher")
	}
	var rows []model.VoucherModel
	if err := q.Order("voucher_created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil voucher")
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPagination(total, p, len(rows)))
}

// PATCH /vouchers/:id/deactivate
func (h *VoucherController) Deactivate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "voucher id tidak valid")
	}

	res := h.DB.WithContext(c.UserContext()).
		Model(&model.VoucherModel{}).
		Where("voucher_id = ?", id).
		Update("voucher_active", false)
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menonaktifkan voucher")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Voucher tidak ditemukan")
	}
	return helper.JsonUpdated(c, "Voucher dinonaktifkan", fiber.Map{"id": id})
}

// POST /vouchers/quote
func (h *VoucherController) Quote(c *fiber.Ctx) error {
	var req dto.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}

	var v *model.VoucherModel
	if code := strings.ToUpper(strings.TrimSpace(req.VoucherCode)); code != "" {
		var row model.VoucherModel
		err := h.DB.WithContext(c.UserContext()).Where("voucher_code = ?", code).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.FromError(c, constants.ErrVoucherNotFound)
		}
		if err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil voucher")
		}
		v = &row
	}

	discount, net, err := service.ComputeNet(req.BaseFee, v)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.QuoteResponse{
		BaseFee:     req.BaseFee,
		VoucherCode: req.VoucherCode,
		Discount:    discount,
		NetPayable:  net,
	})
}
