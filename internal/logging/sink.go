package logging

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	parquetWriter "github.com/xitongsys/parquet-go/writer"
)

type TaskRow struct {
	TaskID        int64   `parquet:"name=task_id, type=INT64"`
	DeviceID      int64   `parquet:"name=device_id, type=INT64"`
	TaskType      int32   `parquet:"name=task_type, type=INT32"`
	Status        string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Tier          string  `parquet:"name=tier, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	VMID          int64   `parquet:"name=vm_id, type=INT64"`
	HostIndex     int64   `parquet:"name=host_index, type=INT64"`
	Length        int64   `parquet:"name=length, type=INT64"`
	InputSize     int64   `parquet:"name=input_size, type=INT64"`
	OutputSize    int64   `parquet:"name=output_size, type=INT64"`
	Arrival       float64 `parquet:"name=arrival, type=DOUBLE"`
	Start         float64 `parquet:"name=start, type=DOUBLE"`
	End           float64 `parquet:"name=end, type=DOUBLE"`
	UploadDelay   float64 `parquet:"name=upload_delay, type=DOUBLE"`
	DownloadDelay float64 `parquet:"name=download_delay, type=DOUBLE"`
	Cost          float64 `parquet:"name=cost, type=DOUBLE"`
}

type LoadRow struct {
	Time      float64 `parquet:"name=time, type=DOUBLE"`
	MobileCPU float64 `parquet:"name=mobile_cpu, type=DOUBLE"`
	EdgeCPU   float64 `parquet:"name=edge_cpu, type=DOUBLE"`
	CloudCPU  float64 `parquet:"name=cloud_cpu, type=DOUBLE"`
	MobileRAM float64 `parquet:"name=mobile_ram, type=DOUBLE"`
	EdgeRAM   float64 `parquet:"name=edge_ram, type=DOUBLE"`
	CloudRAM  float64 `parquet:"name=cloud_ram, type=DOUBLE"`
}

type VMLoadRow struct {
	Time float64 `parquet:"name=time, type=DOUBLE"`
	Tier string  `parquet:"name=tier, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	VMID int64   `parquet:"name=vm_id, type=INT64"`
	CPU  float64 `parquet:"name=cpu, type=DOUBLE"`
	RAM  float64 `parquet:"name=ram, type=DOUBLE"`
}

func writeParquet(path string, schema interface{}, rows func(w *parquetWriter.ParquetWriter) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pw, err := parquetWriter.NewParquetWriterFromWriter(f, schema, 1)
	if err != nil {
		return err
	}
	if err := rows(pw); err != nil {
		return err
	}
	return pw.WriteStop()
}

// WriteParquet stores the task records and the load logs of the run in dir.
func (l *Log) WriteParquet(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "could not create %s", dir)
	}

	var result *multierror.Error

	err := writeParquet(filepath.Join(dir, "tasks.parquet"), new(TaskRow), func(pw *parquetWriter.ParquetWriter) error {
		for _, r := range l.Records() {
			row := TaskRow{
				TaskID:        int64(r.Task.ID),
				DeviceID:      int64(r.Task.DeviceID),
				TaskType:      int32(r.Task.Type),
				Status:        r.Status.String(),
				Tier:          r.Tier.String(),
				VMID:          int64(r.VMID),
				HostIndex:     int64(r.HostIndex),
				Length:        r.Task.Length,
				InputSize:     r.Task.InputSize,
				OutputSize:    r.Task.OutputSize,
				Arrival:       r.Task.Arrival,
				Start:         r.Start,
				End:           r.End,
				UploadDelay:   r.UploadDelay,
				DownloadDelay: r.DownloadDelay,
				Cost:          r.Cost,
			}
			if err := pw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "tasks.parquet"))
	}

	err = writeParquet(filepath.Join(dir, "load.parquet"), new(LoadRow), func(pw *parquetWriter.ParquetWriter) error {
		for _, s := range l.loads {
			if err := pw.Write(LoadRow(s)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "load.parquet"))
	}

	err = writeParquet(filepath.Join(dir, "vm_load.parquet"), new(VMLoadRow), func(pw *parquetWriter.ParquetWriter) error {
		for _, s := range l.vmLoads {
			row := VMLoadRow{Time: s.Time, Tier: s.Tier.String(), VMID: int64(s.VMID), CPU: s.CPU, RAM: s.RAM}
			if err := pw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "vm_load.parquet"))
	}

	if result == nil {
		log.Infof("Statistics written to %s", dir)
	}
	return result.ErrorOrNil()
}
