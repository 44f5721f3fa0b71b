package service

import (
	"net/mail"
	"strconv"
	"strings"
)

const minRegisterPasswordLen = 6

func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func ValidateRegister(email, password string) error {
	var fields []FieldError

	if !IsValidEmail(email) {
		fields = append(fields, FieldError{Field: "email", Message: "Invalid email format"})
	}
	if len(password) < minRegisterPasswordLen {
		fields = append(fields, FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func ValidateLogin(email, password string) error {
	var fields []FieldError

	if !IsValidEmail(email) {
		fields = append(fields, FieldError{Field: "email", Message: "Invalid email format"})
	}
	if password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "Password is required"})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func ValidateCreateOrder(in CreateOrderInput) error {
	var fields []FieldError

	if strings.TrimSpace(in.Lab) == "" {
		fields = append(fields, FieldError{Field: "lab", Message: "Lab is required"})
	}
	if strings.TrimSpace(in.Patient) == "" {
		fields = append(fields, FieldError{Field: "patient", Message: "Patient is required"})
	}
	if strings.TrimSpace(in.Customer) == "" {
		fields = append(fields, FieldError{Field: "customer", Message: "Customer is required"})
	}

	if len(in.Services) == 0 {
		fields = append(fields, FieldError{Field: "services", Message: "At least one service is required"})
	}
	for i, svc := range in.Services {
		if strings.TrimSpace(svc.Name) == "" {
			fields = append(fields, FieldError{Field: serviceField(i, "name"), Message: "Service name is required"})
		}
		if svc.Value <= 0 {
			fields = append(fields, FieldError{Field: serviceField(i, "value"), Message: "Service value must be greater than 0"})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func serviceField(i int, name string) string {
	return "services." + strconv.Itoa(i) + "." + name
}
