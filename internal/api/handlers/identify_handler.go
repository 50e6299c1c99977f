package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"leaflens/domain"
	"leaflens/internal/api/presenters"
	"leaflens/internal/utils/storage"
	"leaflens/pkg/identify"
)

type (
	IdentifyHandler interface {
		Identify(c *fiber.Ctx) error
		Translate(c *fiber.Ctx) error
		TextToSpeech(c *fiber.Ctx) error
		GetOriginalPlantInfo(c *fiber.Ctx) error
		GetPlantLabels(c *fiber.Ctx) error
	}

	identifyHandler struct {
		identifyService identify.IdentifyService
		validator       *validator.Validate
	}
)

func NewIdentifyHandler(identifyService identify.IdentifyService, validator *validator.Validate) IdentifyHandler {
	return &identifyHandler{
		identifyService: identifyService,
		validator:       validator,
	}
}

func (h *identifyHandler) Identify(c *fiber.Ctx) error {
	image, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedIdentify, domain.ErrMissingImage)
	}

	req := domain.IdentifyRequest{
		Image:    image,
		Language: strings.TrimSpace(c.FormValue("language", domain.DefaultLanguage)),
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedIdentify, err)
	}
	if _, err := storage.ImageExtension(image.Filename); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedIdentify, err)
	}

	data, err := storage.ReadUpload(image)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedIdentify, domain.ErrMissingImage)
	}

	result, err := h.identifyService.Identify(c.UserContext(), data, image.Filename, req.Language)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedIdentify, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessIdentify)
}

func (h *identifyHandler) Translate(c *fiber.Ctx) error {
	req := new(domain.TranslateRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedTranslate, err)
	}

	info := h.identifyService.Translate(c.UserContext(), *req)
	return presenters.SuccessResponse(c, fiber.Map{
		"content":  info,
		"language": req.Language,
	}, fiber.StatusOK, domain.MessageSuccessTranslate)
}

func (h *identifyHandler) TextToSpeech(c *fiber.Ctx) error {
	req := new(domain.TTSRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedTTS, err)
	}

	res, err := h.identifyService.Speak(c.UserContext(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedTTS, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessTTS)
}

func (h *identifyHandler) GetOriginalPlantInfo(c *fiber.Ctx) error {
	req := new(domain.OriginalPlantInfoRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetPlantInfo, err)
	}

	res, err := h.identifyService.OriginalPlantInfo(c.UserContext(), req.PlantName)
	if err != nil {
		return presenters.ErrorResponse(c, errorStatus(err), domain.MessageFailedGetPlantInfo, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetPlantInfo)
}

func (h *identifyHandler) GetPlantLabels(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, fiber.Map{
		"labels": h.identifyService.Labels(),
	}, fiber.StatusOK, domain.MessageSuccessGetPlantLabels)
}
